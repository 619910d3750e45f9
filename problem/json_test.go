package problem

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMarshalJSON(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	author := UserID(4)
	name := "Bojan"
	crewID := CrewID(2)
	crewName := "Line 2"
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{
			"problem nests creator and crew",
			Problem{ID: 1, Title: "Leak", Description: "Oil on floor", CreatedAt: created, CreatedByID: 3, CreatedBy: "Ana", CrewID: 2, CrewName: "Line 2"},
			`{"id":1,"title":"Leak","description":"Oil on floor","createdAt":"2024-03-01T09:00:00Z","createdBy":{"id":3,"name":"Ana"},"crew":{"id":2,"name":"Line 2"}}`,
		},
		{
			"solution without author",
			Solution{ID: 5, ProblemID: 1, RootCauseID: 9, Description: "Replace seal", CreatedAt: created},
			`{"id":5,"problemId":1,"rootCauseId":9,"rootCauseDescription":null,"isRootCause":null,"description":"Replace seal","createdAt":"2024-03-01T09:00:00Z","author":null}`,
		},
		{
			"solution with author",
			Solution{ID: 5, ProblemID: 1, RootCauseID: 9, Description: "Replace seal", CreatedAt: created, AuthorID: &author, AuthorName: &name},
			`{"id":5,"problemId":1,"rootCauseId":9,"rootCauseDescription":null,"isRootCause":null,"description":"Replace seal","createdAt":"2024-03-01T09:00:00Z","author":{"id":4,"name":"Bojan"}}`,
		},
		{
			"user with crew",
			User{ID: 4, Name: "Bojan", Email: "bojan@example.com", CrewID: &crewID, CrewName: &crewName},
			`{"userId":4,"username":"Bojan","userEmail":"bojan@example.com","crew":{"id":2,"name":"Line 2"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}
