package form

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formgate/models"
)

type fakeChecker struct {
	verdict    bool
	err        error
	keyValid   bool
	payload    SpamPayload
	checkCalls int
	verifyCall int
}

func (f *fakeChecker) CheckSpam(ctx context.Context, payload SpamPayload) (bool, error) {
	f.checkCalls++
	f.payload = payload
	return f.verdict, f.err
}

func (f *fakeChecker) VerifyCredentials(ctx context.Context) (bool, error) {
	f.verifyCall++
	return f.keyValid, nil
}

func spamTemplate() *models.FormTemplate {
	return &models.FormTemplate{
		Name: "contact",
		Fields: []models.TemplateField{
			{ID: "name", Position: 0},
			{ID: "email", Position: 1},
			{ID: "message", Position: 2},
		},
		SpamFieldGroups: &models.SpamFieldGroups{
			Content: []string{"message", "missingField"},
			Other:   []string{"name", "email"},
		},
	}
}

func TestClassifySpamVerdict(t *testing.T) {
	checker := &fakeChecker{verdict: true}
	c := NewClassifier(checker)

	verdict := c.Classify(context.Background(), spamTemplate(), map[string]string{
		"name":    "Jax",
		"email":   "jax@x.com",
		"message": "hello there",
	}, "203.0.113.9", "test-agent")

	require.NotNil(t, verdict)
	assert.Equal(t, "true", verdict["spam"])
	assert.Equal(t, SpamSuppressedRecipient, verdict["toUidsSpamOverride"])

	assert.Equal(t, 1, checker.checkCalls)
	assert.Equal(t, "203.0.113.9", checker.payload.IP)
	assert.Equal(t, "test-agent", checker.payload.UserAgent)
	assert.Equal(t, "hello there", checker.payload.Content, "absent content fields are skipped")
	assert.Equal(t, map[string]string{"name": "Jax", "email": "jax@x.com"}, checker.payload.Other)
}

func TestClassifyHamVerdict(t *testing.T) {
	checker := &fakeChecker{verdict: false}
	c := NewClassifier(checker)

	verdict := c.Classify(context.Background(), spamTemplate(), map[string]string{"message": "hi"}, "", "")

	require.NotNil(t, verdict)
	assert.Equal(t, map[string]string{"spam": "false"}, verdict)
}

func TestClassifyFailOpen(t *testing.T) {
	checker := &fakeChecker{err: errors.New("network down"), keyValid: true}
	c := NewClassifier(checker)

	verdict := c.Classify(context.Background(), spamTemplate(), map[string]string{"message": "hi"}, "", "")

	assert.Nil(t, verdict, "service failure must not block the submission")
	assert.Equal(t, 1, checker.verifyCall, "credentials are re-verified for diagnostics")
}

func TestAkismetClientCheckSpam(t *testing.T) {
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for key := range r.PostForm {
			gotForm[key] = r.PostForm.Get(key)
		}
		assert.Equal(t, "/1.1/comment-check", r.URL.Path)
		w.Write([]byte("true"))
	}))
	defer server.Close()

	client := NewAkismetClient("k123", "https://acme.example.com", server.URL, 5*time.Second)
	isSpam, err := client.CheckSpam(context.Background(), SpamPayload{
		IP:        "203.0.113.9",
		UserAgent: "test-agent",
		Content:   "buy stuff",
		Other:     map[string]string{"email": "jax@x.com"},
	})

	require.NoError(t, err)
	assert.True(t, isSpam)
	assert.Equal(t, "k123", gotForm["api_key"])
	assert.Equal(t, "https://acme.example.com", gotForm["blog"])
	assert.Equal(t, "203.0.113.9", gotForm["user_ip"])
	assert.Equal(t, "buy stuff", gotForm["comment_content"])
	assert.Equal(t, "jax@x.com", gotForm["email"])
}

func TestAkismetClientUnexpectedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Missing required field: blog."))
	}))
	defer server.Close()

	client := NewAkismetClient("k123", "blog", server.URL, 5*time.Second)
	_, err := client.CheckSpam(context.Background(), SpamPayload{})
	assert.Error(t, err)
}

func TestAkismetClientVerifyCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1.1/verify-key", r.URL.Path)
		w.Write([]byte("valid"))
	}))
	defer server.Close()

	client := NewAkismetClient("k123", "blog", server.URL, 5*time.Second)
	valid, err := client.VerifyCredentials(context.Background())
	require.NoError(t, err)
	assert.True(t, valid)
}
