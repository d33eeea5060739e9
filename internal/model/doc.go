// Package model defines the core data structures used throughout
// the chronicle-bulk-downloader application.
//
// # StudyRequest
//
// StudyRequest describes one download run: which study, which data types,
// which participants, and where results go. It is built once from validated
// caller input and never mutated afterwards:
//
//	req := &model.StudyRequest{
//	    StudyID:    "6a7b...",
//	    Token:      token,
//	    DataTypes:  []model.DataType{model.DataTypeRaw, model.DataTypeSurvey},
//	    Filter:     model.ParticipantFilter{Mode: model.FilterExclude},
//	    OutputRoot: "/data/chronicle",
//	}
//	if err := req.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # DataType
//
// DataType is the closed set of Chronicle data categories. Each variant
// knows its API query value, its endpoint family, and the file extension
// of its payloads:
//
//	dt := model.DataTypeSurvey
//	fmt.Println(dt.APIValue())  // "AppUsageSurvey"
//	fmt.Println(dt.Extension()) // ".csv"
//
// # Tasks and outcomes
//
// DownloadTask is the unit of concurrency and failure isolation: one
// (participant, data type) fetch writing one file. Every planned task
// produces exactly one TaskOutcome, and a RunSummary aggregates them for
// the caller.
package model
