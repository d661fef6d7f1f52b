package roster

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classroll/internal/model"
	"classroll/internal/store/storetest"
)

func TestService_Add(t *testing.T) {
	db := storetest.NewSQLite(t)
	svc := NewService(NewRepository(db))
	ctx := context.Background()
	teacher := storetest.SeedTeacher(t, db, uuid.NewString(), "t@test.io")

	st, err := svc.Add(ctx, teacher, "  Ada  ")
	require.NoError(t, err)
	assert.Equal(t, "Ada", st.Name)
	assert.Equal(t, teacher, st.TeacherID)

	tests := []struct {
		name      string
		teacherID string
		student   string
	}{
		{name: "blank name", teacherID: teacher, student: "   "},
		{name: "too long", teacherID: teacher, student: strings.Repeat("x", maxNameLen+1)},
		{name: "no teacher", student: "Ada"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, tt.teacherID, tt.student)
			assert.ErrorIs(t, err, model.ErrMissingFields)
		})
	}
	assert.Equal(t, 1, storetest.Count(t, db, "students", ""))
}

func TestService_GetAndRemove(t *testing.T) {
	db := storetest.NewSQLite(t)
	svc := NewService(NewRepository(db))
	ctx := context.Background()
	owner := storetest.SeedTeacher(t, db, uuid.NewString(), "o@test.io")
	other := storetest.SeedTeacher(t, db, uuid.NewString(), "x@test.io")

	st, err := svc.Add(ctx, owner, "Ada")
	require.NoError(t, err)

	got, err := svc.Get(ctx, owner, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.ID, got.ID)

	_, err = svc.Get(ctx, other, st.ID)
	assert.ErrorIs(t, err, model.ErrNotAuthorized)

	assert.ErrorIs(t, svc.Remove(ctx, other, st.ID), model.ErrNotAuthorized)
	assert.ErrorIs(t, svc.Remove(ctx, owner, uuid.NewString()), model.ErrNotAuthorized)
	assert.ErrorIs(t, svc.Remove(ctx, owner, ""), model.ErrMissingFields)
	require.NoError(t, svc.Remove(ctx, owner, st.ID))

	students, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, students)
}
