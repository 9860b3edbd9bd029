package services

import (
	"strings"

	"workdesk/internal/models"
)

// Actor is the caller on whose behalf a mutation runs.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (a Actor) DisplayName() string {
	switch {
	case strings.TrimSpace(a.Name) != "":
		return a.Name
	case a.ID != "":
		return a.ID
	}
	return models.AnonymousCreator
}

func (a Actor) Anonymous() bool {
	return a.ID == "" || a.ID == models.AnonymousCreator
}

// SystemActor authors automation audit comments.
var SystemActor = Actor{ID: "system", Name: "Automation"}
