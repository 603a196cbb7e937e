package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tgienger/toman/internal/models"
)

func TestCanTransitionIntoDone(t *testing.T) {
	roles := []models.Role{models.RoleAdmin, models.RoleContributor, models.RoleViewer}
	want := map[models.Status]map[models.Role]bool{
		models.StatusToDo:       {models.RoleAdmin: true, models.RoleContributor: true, models.RoleViewer: false},
		models.StatusInProgress: {models.RoleAdmin: true, models.RoleContributor: true, models.RoleViewer: false},
		models.StatusReview:     {models.RoleAdmin: true, models.RoleContributor: false, models.RoleViewer: false},
	}

	for from, byRole := range want {
		for _, role := range roles {
			task := models.Task{Status: from}
			assert.Equal(t, byRole[role], CanTransition(task, models.StatusDone, role), "%s -> Done as %s", from, role)
		}
	}
}

func TestCanTransitionNeverToSameStatus(t *testing.T) {
	for _, s := range models.Statuses {
		for _, role := range []models.Role{models.RoleAdmin, models.RoleContributor, models.RoleViewer} {
			assert.False(t, CanTransition(models.Task{Status: s}, s, role), "%s as %s", s, role)
		}
	}
}

func TestViewerCannotMoveAnywhere(t *testing.T) {
	for _, from := range models.Statuses {
		for _, to := range models.Statuses {
			assert.False(t, CanTransition(models.Task{Status: from}, to, models.RoleViewer))
		}
	}
}

func TestContributorMovesFreelyOutsideReviewToDone(t *testing.T) {
	task := models.Task{Status: models.StatusReview}
	assert.True(t, CanTransition(task, models.StatusInProgress, models.RoleContributor))
	assert.True(t, CanTransition(task, models.StatusToDo, models.RoleContributor))

	task = models.Task{Status: models.StatusDone}
	assert.True(t, CanTransition(task, models.StatusReview, models.RoleContributor))
}

func TestUnknownRoleAndStatus(t *testing.T) {
	task := models.Task{Status: models.StatusToDo}
	assert.False(t, CanTransition(task, models.StatusInProgress, models.Role("Owner")))
	assert.False(t, CanTransition(task, models.Status("Blocked"), models.RoleAdmin))
}

func TestCanAssign(t *testing.T) {
	open := models.Task{}
	taken := models.Task{AssignedTo: "u2"}

	assert.True(t, CanAssign(open, models.RoleAdmin))
	assert.True(t, CanAssign(open, models.RoleContributor))
	assert.False(t, CanAssign(open, models.RoleViewer))
	assert.False(t, CanAssign(taken, models.RoleAdmin))
}
