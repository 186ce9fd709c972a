package scoreboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuesserPointsScalesWithElapsedTime(t *testing.T) {
	assert.Equal(t, 1000, GuesserPoints(0, 60000))
	assert.Equal(t, 500, GuesserPoints(30000, 60000))
}

func TestGuesserPointsNeverBelowFloor(t *testing.T) {
	assert.Equal(t, PMin, GuesserPoints(59999, 60000))
}

func TestDrawerPointsZeroWhenNoGuessers(t *testing.T) {
	assert.Equal(t, 0, DrawerPoints(nil, 5))
}

func TestDrawerPointsAveragesAcrossGuessers(t *testing.T) {
	// mean(1000,500) * 2 / 4 = 375
	assert.Equal(t, 375, DrawerPoints([]int{1000, 500}, 4))
}

func TestBoardAccumulatesAndReports(t *testing.T) {
	b := New()
	b.AddTurnPoints("u1", 500)
	b.AddTurnPoints("u1", 300)
	b.AddTurnPoints("u2", 900)

	assert.Equal(t, 800, b.Score("u1"))
	assert.Equal(t, []string{"u2"}, b.Winners())
}

func TestBoardWinnersTieAtTop(t *testing.T) {
	b := New()
	b.AddTurnPoints("u1", 500)
	b.AddTurnPoints("u2", 500)

	assert.Equal(t, []string{"u1", "u2"}, b.Winners())
}

func TestBoardResetClearsScores(t *testing.T) {
	b := New()
	b.AddTurnPoints("u1", 500)
	b.Reset()

	assert.Equal(t, 0, b.Score("u1"))
	assert.Nil(t, b.Winners())
}
