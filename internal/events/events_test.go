package events_test

import (
	"testing"

	"github.com/mkd-neo4j/neo4j-ogm/internal/events"
	events_mocks "github.com/mkd-neo4j/neo4j-ogm/internal/events/mocks"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestService_DeliversToListenersInOrder(t *testing.T) {
	var got []string
	first := events.ListenerFunc(func(e events.Event) { got = append(got, "first:"+string(e.Kind)) })
	second := events.ListenerFunc(func(e events.Event) { got = append(got, "second:"+string(e.Kind)) })

	svc := events.NewService(first, second)
	svc.EmitEvent(svc.NewEvent(events.PreSave, "s1"))

	assert.Equal(t, []string{"first:PRE_SAVE", "second:PRE_SAVE"}, got)
}

func TestService_Disable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	listener := events_mocks.NewMockListener(ctrl)
	listener.EXPECT().OnEvent(gomock.Any()).Times(1)

	svc := events.NewService(listener)
	svc.Disable()
	svc.EmitEvent(svc.NewEvent(events.PostLoad, "s1"))
	svc.Enable()
	svc.EmitEvent(svc.NewEvent(events.PostLoad, "s1"))
}

func TestService_NewEvent(t *testing.T) {
	svc := events.NewService()
	entity := &struct{}{}
	e := svc.NewEvent(events.PostDelete, "abc", entity)

	assert.Equal(t, events.PostDelete, e.Kind)
	assert.Equal(t, "abc", e.SessionID)
	assert.Equal(t, []any{entity}, e.Entities)
	assert.False(t, e.Time.IsZero())
}
