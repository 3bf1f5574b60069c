package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "wellness.events.member_joined", Subject(MemberJoined))
	assert.Equal(t, "wellness.events.activity_logged", Subject(ActivityLogged))
}
