package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigate_HappyPath(t *testing.T) {
	p, err := Navigate(PageSurvey, EventSubmit, true)
	require.NoError(t, err)
	assert.Equal(t, PagePortfolio, p)

	p, err = Navigate(p, EventViewBacktest, true)
	require.NoError(t, err)
	assert.Equal(t, PageBacktest, p)

	p, err = Navigate(p, EventBack, true)
	require.NoError(t, err)
	assert.Equal(t, PagePortfolio, p)

	p, err = Navigate(p, EventBack, true)
	require.NoError(t, err)
	assert.Equal(t, PageSurvey, p)
}

func TestNavigate_SubmitIncomplete(t *testing.T) {
	p, err := Navigate(PageSurvey, EventSubmit, false)
	assert.ErrorIs(t, err, ErrSurveyIncomplete)
	assert.Equal(t, PageSurvey, p)
}

func TestNavigate_RestartFromAnywhere(t *testing.T) {
	for _, from := range []Page{PageSurvey, PagePortfolio, PageBacktest} {
		p, err := Navigate(from, EventRestart, false)
		require.NoError(t, err)
		assert.Equal(t, PageSurvey, p)
	}
}

func TestNavigate_InvalidTransitions(t *testing.T) {
	cases := []struct {
		from  Page
		event NavEvent
	}{
		{PageSurvey, EventViewBacktest},
		{PageSurvey, EventBack},
		{PagePortfolio, EventSubmit},
		{PageBacktest, EventViewBacktest},
		{PageBacktest, "jump"},
	}
	for _, tc := range cases {
		p, err := Navigate(tc.from, tc.event, true)
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s/%s", tc.from, tc.event)
		assert.Equal(t, tc.from, p)
	}
}

func TestParsePage(t *testing.T) {
	p, err := ParsePage("")
	require.NoError(t, err)
	assert.Equal(t, PageSurvey, p)

	p, err = ParsePage("Backtest")
	require.NoError(t, err)
	assert.Equal(t, PageBacktest, p)

	_, err = ParsePage("settings")
	assert.ErrorIs(t, err, ErrInvalidAnswer)
}
