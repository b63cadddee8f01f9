package repository

import "github.com/eslsoft/clozegen/pkg/filterexpr"

var listExercisesSchema = filterexpr.ResourceSchema{
	Filter: map[string]filterexpr.FilterField{
		"difficulty": {
			Kind: filterexpr.KindString,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpEQ: "Difficulty",
				filterexpr.OpIN: "Difficulties",
			},
		},
		"song_id": {
			Kind: filterexpr.KindNumber,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "SongID"},
		},
		"gap_count": {
			Kind: filterexpr.KindNumber,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpGTE: "MinGapCount",
				filterexpr.OpLTE: "MaxGapCount",
			},
		},
		"avg_difficulty_score": {
			Kind: filterexpr.KindNumber,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpGTE: "MinAvgScore",
				filterexpr.OpLTE: "MaxAvgScore",
			},
		},
		"create_time": {
			Kind: filterexpr.KindTimestamp,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpGTE: "CreatedAfter",
				filterexpr.OpLTE: "CreatedBefore",
			},
		},
	},
	Order: filterexpr.OrderSchema{
		DefaultPrimary:     "created_at",
		DefaultPrimaryDesc: true,
		FallbackKey:        "id",
		FallbackDesc:       false,
		Fields: map[string]filterexpr.OrderField{
			"created_at":           {Expr: "created_at", Nulls: "last"},
			"updated_at":           {Expr: "updated_at", Nulls: "last"},
			"gap_count":            {Expr: "gap_count", Nulls: "last"},
			"avg_difficulty_score": {Expr: "avg_difficulty_score", Nulls: "last"},
			"id":                   {Expr: "id", Nulls: "last"},
		},
	},
}
