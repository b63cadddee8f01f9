package migrate

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// SongsColumns holds the columns for the "songs" table.
	SongsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "title", Type: field.TypeString},
		{Name: "artist", Type: field.TypeString},
		{Name: "language", Type: field.TypeString, Default: "en"},
		{Name: "lyrics", Type: field.TypeString, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// SongsTable holds the schema information for the "songs" table.
	SongsTable = &schema.Table{
		Name:       "songs",
		Columns:    SongsColumns,
		PrimaryKey: []*schema.Column{SongsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "song_artist_title_language",
				Unique:  true,
				Columns: []*schema.Column{SongsColumns[2], SongsColumns[1], SongsColumns[3]},
			},
		},
	}
	// ExercisesColumns holds the columns for the "exercises" table.
	ExercisesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "exercise_id", Type: field.TypeString, Unique: true},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "gaps", Type: field.TypeJSON},
		{Name: "blanked_text", Type: field.TypeString, Size: 2147483647},
		{Name: "gap_count", Type: field.TypeInt},
		{Name: "avg_difficulty_score", Type: field.TypeFloat64},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
		{Name: "song_id", Type: field.TypeInt64},
	}
	// ExercisesTable holds the schema information for the "exercises" table.
	ExercisesTable = &schema.Table{
		Name:       "exercises",
		Columns:    ExercisesColumns,
		PrimaryKey: []*schema.Column{ExercisesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "exercises_songs_exercises",
				Columns:    []*schema.Column{ExercisesColumns[9]},
				RefColumns: []*schema.Column{SongsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "exercise_song_id_difficulty",
				Unique:  true,
				Columns: []*schema.Column{ExercisesColumns[9], ExercisesColumns[2]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		SongsTable,
		ExercisesTable,
	}
)

func init() {
	ExercisesTable.ForeignKeys[0].RefTable = SongsTable
}
