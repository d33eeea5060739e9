package download

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/methodic-labs/chronicle-bulk-downloader/internal/model"
)

func TestPlan_ParticipantMajorOrder(t *testing.T) {
	req := &model.StudyRequest{
		StudyID:    "study-1",
		Token:      "tok",
		DataTypes:  []model.DataType{model.DataTypeRaw, model.DataTypeSurvey},
		OutputRoot: "/tmp/out",
	}

	tasks := Plan(req, []string{"alice", "carol"}, "https://api.example.com")

	if len(tasks) != 4 {
		t.Fatalf("len(tasks) = %d, want 4", len(tasks))
	}

	wantOrder := []struct {
		pid string
		dt  model.DataType
	}{
		{"alice", model.DataTypeRaw},
		{"alice", model.DataTypeSurvey},
		{"carol", model.DataTypeRaw},
		{"carol", model.DataTypeSurvey},
	}
	for i, want := range wantOrder {
		if tasks[i].ParticipantID != want.pid || tasks[i].DataType != want.dt {
			t.Errorf("tasks[%d] = (%s, %s), want (%s, %s)",
				i, tasks[i].ParticipantID, tasks[i].DataType, want.pid, want.dt)
		}
	}
}

func TestPlan_DestPaths(t *testing.T) {
	req := &model.StudyRequest{
		StudyID:    "study-1",
		Token:      "tok",
		DataTypes:  []model.DataType{model.DataTypeRaw, model.DataTypeTUDDaytime},
		OutputRoot: "/tmp/out",
	}

	tasks := Plan(req, []string{"alice"}, "https://api.example.com")

	want := []string{
		filepath.Join("/tmp/out", "study-1", "raw", "alice.csv"),
		filepath.Join("/tmp/out", "study-1", "tud-daytime", "alice.json"),
	}
	for i, w := range want {
		if tasks[i].DestPath != w {
			t.Errorf("tasks[%d].DestPath = %q, want %q", i, tasks[i].DestPath, w)
		}
	}
}

func TestPlan_DedupesDataTypes(t *testing.T) {
	req := &model.StudyRequest{
		StudyID:    "s",
		Token:      "tok",
		DataTypes:  []model.DataType{model.DataTypeRaw, model.DataTypeRaw, model.DataTypeSurvey},
		OutputRoot: "/tmp/out",
	}

	tasks := Plan(req, []string{"p1"}, "https://api.example.com")
	if len(tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(tasks))
	}

	paths := make(map[string]bool)
	for _, task := range tasks {
		if paths[task.DestPath] {
			t.Errorf("duplicate DestPath %q", task.DestPath)
		}
		paths[task.DestPath] = true
	}
}

func TestPlan_URLsCarryParticipantAndType(t *testing.T) {
	req := &model.StudyRequest{
		StudyID:    "study-1",
		Token:      "tok",
		DataTypes:  []model.DataType{model.DataTypeSurvey},
		OutputRoot: "/tmp/out",
	}

	tasks := Plan(req, []string{"p-7"}, "https://api.example.com")
	if len(tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(tasks))
	}
	u := tasks[0].URL
	for _, substr := range []string{"participantId=p-7", "dataType=AppUsageSurvey", "fileType=csv"} {
		if !strings.Contains(u, substr) {
			t.Errorf("URL %q misses %q", u, substr)
		}
	}
}

func TestPlan_SanitizesParticipantInPath(t *testing.T) {
	req := &model.StudyRequest{
		StudyID:    "s",
		Token:      "tok",
		DataTypes:  []model.DataType{model.DataTypeRaw},
		OutputRoot: "/tmp/out",
	}

	tasks := Plan(req, []string{"a:b"}, "https://api.example.com")
	base := filepath.Base(tasks[0].DestPath)
	if strings.ContainsAny(base, `:/\`) {
		t.Errorf("DestPath base %q carries unsafe characters", base)
	}
}
