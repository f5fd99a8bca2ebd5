package rest_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"kibaro-cli/internal/domain"
	"kibaro-cli/internal/testutil/fakeapi"
	"kibaro-cli/internal/transport/rest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerTokenAttached(t *testing.T) {
	api := fakeapi.New()
	defer api.Close()

	token := ""
	client := rest.New(api.BaseURL(), rest.TokenFunc(func() string { return token }))

	_, err := client.ListChapters(context.Background())
	require.NoError(t, err)

	token = "tok-awa"
	_, err = client.MyScores(context.Background())
	require.NoError(t, err)

	reqs := api.Requests()
	require.Len(t, reqs, 2)
	assert.Empty(t, reqs[0].Auth, "no header without a token")
	assert.Equal(t, "Bearer tok-awa", reqs[1].Auth)
}

func TestListAcceptsWrappedAndBare(t *testing.T) {
	api := fakeapi.New()
	defer api.Close()
	client := rest.New(api.BaseURL(), nil)

	chapters, err := client.ListChapters(context.Background())
	require.NoError(t, err)
	require.Len(t, chapters, 1)

	questions, err := client.GameQuestions(context.Background(), "g1")
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	api := fakeapi.New()
	defer api.Close()
	client := rest.New(api.BaseURL(), nil)

	_, err := client.Game(context.Background(), "missing")
	var apiErr *rest.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Partie introuvable", apiErr.Message)
	assert.Equal(t, "Partie introuvable", rest.UserMessage(err, "fallback"))
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	api := fakeapi.New()
	defer api.Close()
	client := rest.New(api.BaseURL(), rest.TokenFunc(func() string { return "stale" }))

	_, err := client.MyScores(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNotAuthenticated))
}

func TestUnreachableBackend(t *testing.T) {
	api := fakeapi.New()
	base := api.BaseURL()
	api.Close()

	client := rest.New(base, nil)
	_, err := client.ListChapters(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnreachable)
	assert.Equal(t, "could not load chapters", rest.UserMessage(err, "could not load chapters"))
}

func TestSyncScoresBody(t *testing.T) {
	api := fakeapi.New()
	defer api.Close()
	client := rest.New(api.BaseURL(), nil)

	err := client.SyncScores(context.Background(), []domain.ScoreSubmission{{Points: 3, QuizType: "chapter", ChapterID: "c1"}})
	require.NoError(t, err)
	batches := api.SyncedBatches()
	require.Len(t, batches, 1)
	assert.Equal(t, 3, batches[0][0].Points)
}
