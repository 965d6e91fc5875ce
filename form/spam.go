package form

import (
	"context"
	"log"
	"strings"

	"formgate/models"
)

// SpamPayload is the classification request sent to the spam service.
// Content is the template's content-group fields concatenated into one
// text blob; Other carries discrete key/value fields.
type SpamPayload struct {
	IP        string
	UserAgent string
	Content   string
	Other     map[string]string
}

// SpamChecker is the external spam-detection service.
type SpamChecker interface {
	CheckSpam(ctx context.Context, payload SpamPayload) (bool, error)
	VerifyCredentials(ctx context.Context) (bool, error)
}

// Classifier runs the optional spam check for one submission.
type Classifier struct {
	checker SpamChecker
}

func NewClassifier(checker SpamChecker) *Classifier {
	return &Classifier{checker: checker}
}

// Classify checks the submission against the spam service and returns the
// prop entries for the accumulator's second pass. A spam verdict suppresses
// the notification recipient while the record is still persisted. Service
// failure is fail-open: the error is logged, credentials are re-verified
// for diagnostics, and nil is returned so the submission proceeds as if no
// verdict existed.
func (c *Classifier) Classify(ctx context.Context, template *models.FormTemplate, data map[string]string, ip, userAgent string) map[string]string {
	payload := SpamPayload{
		IP:        ip,
		UserAgent: userAgent,
		Content:   contentGroup(template, data),
		Other:     otherGroup(template, data),
	}

	isSpam, err := c.checker.CheckSpam(ctx, payload)
	if err != nil {
		valid, verifyErr := c.checker.VerifyCredentials(ctx)
		switch {
		case verifyErr != nil:
			log.Printf("⚠️  Spam check credential verification failed: %v", verifyErr)
		case valid:
			log.Printf("Spam check: API key is valid")
		default:
			log.Printf("⚠️  Spam check: invalid API key")
		}
		log.Printf("❌ Spam check failed, submission proceeds unclassified: %v", err)
		return nil
	}

	if isSpam {
		return map[string]string{
			"spam":               "true",
			"toUidsSpamOverride": SpamSuppressedRecipient,
		}
	}
	return map[string]string{"spam": "false"}
}

// contentGroup concatenates the template's content-group field values.
// Fields absent from the whitelisted data are skipped.
func contentGroup(template *models.FormTemplate, data map[string]string) string {
	if template.SpamFieldGroups == nil {
		return ""
	}
	var b strings.Builder
	for _, field := range template.SpamFieldGroups.Content {
		value, ok := data[field]
		if !ok {
			continue
		}
		b.WriteString(value)
		b.WriteString(" ")
	}
	return strings.TrimSpace(b.String())
}

// otherGroup collects the template's other-group fields as key/value pairs.
func otherGroup(template *models.FormTemplate, data map[string]string) map[string]string {
	if template.SpamFieldGroups == nil || len(template.SpamFieldGroups.Other) == 0 {
		return nil
	}
	other := make(map[string]string)
	for _, field := range template.SpamFieldGroups.Other {
		if value, ok := data[field]; ok {
			other[field] = value
		}
	}
	if len(other) == 0 {
		return nil
	}
	return other
}
