package publisher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "timetables.7", Subject("timetables", 7))
	assert.Equal(t, "metro_timetables.12", Subject(" metro.timetables ", 12))
	assert.Equal(t, "_.3", Subject("", 3))
	assert.Equal(t, "a_b_c.1", Subject("a*b>c", 1))
}
