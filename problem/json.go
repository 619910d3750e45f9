package problem

import (
	"encoding/json"
	"time"

	"github.com/aquilax/eightd/node"
)

func (p Problem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          ProblemID `json:"id"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		CreatedAt   time.Time `json:"createdAt"`
		CreatedBy   Ref       `json:"createdBy"`
		Crew        Ref       `json:"crew"`
	}{p.ID, p.Title, p.Description, p.CreatedAt, p.Creator(), p.Crew()})
}

func (s Solution) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID                   SolutionID  `json:"id"`
		ProblemID            ProblemID   `json:"problemId"`
		RootCauseID          node.NodeID `json:"rootCauseId"`
		RootCauseDescription *string     `json:"rootCauseDescription"`
		IsRootCause          *bool       `json:"isRootCause"`
		Description          string      `json:"description"`
		CreatedAt            time.Time   `json:"createdAt"`
		Author               *Ref        `json:"author"`
	}{s.ID, s.ProblemID, s.RootCauseID, s.RootCauseDescription, s.IsRootCause, s.Description, s.CreatedAt, s.Author()})
}

func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID    UserID `json:"userId"`
		Name  string `json:"username"`
		Email string `json:"userEmail"`
		Crew  *Ref   `json:"crew"`
	}{u.ID, u.Name, u.Email, u.Crew()})
}
