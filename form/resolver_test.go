package form

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"formgate/models"
)

func TestTriStateResolve(t *testing.T) {
	cases := []struct {
		name   string
		global models.TriState
		app    bool
		want   bool
	}{
		{name: "force off ignores app true", global: models.ForceOff, app: true, want: false},
		{name: "force off ignores app false", global: models.ForceOff, app: false, want: false},
		{name: "force on ignores app false", global: models.ForceOn, app: false, want: true},
		{name: "force on ignores app true", global: models.ForceOn, app: true, want: true},
		{name: "defer uses app true", global: models.DeferToApp, app: true, want: true},
		{name: "defer uses app false", global: models.DeferToApp, app: false, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.global.Resolve(tc.app))
		})
	}
}

func testConfigs(global, app models.Condition) (*models.GlobalConfig, *models.AppConfig) {
	g := &models.GlobalConfig{
		Condition: global,
		Message: models.Messages{
			Success: models.Message{Text: "global success"},
			Error:   models.Message{Text: "global error"},
		},
	}
	a := &models.AppConfig{
		AppKey:    "acme",
		Condition: app,
		AppInfo:   models.AppInfo{AppURL: "https://acme.example.com"},
		Message: models.Messages{
			Success: models.Message{Text: "app success"},
			Error:   models.Message{Text: "app error"},
		},
	}
	return g, a
}

func TestResolveConfigMessages(t *testing.T) {
	t.Run("global messages forced on", func(t *testing.T) {
		g, a := testConfigs(models.Condition{MessageGlobal: models.ForceOn}, models.Condition{})
		d := ResolveConfig(g, a)
		assert.Equal(t, "global success", d.Messages.Success.Text)
	})

	t.Run("app messages when global defers and app opts out", func(t *testing.T) {
		g, a := testConfigs(models.Condition{MessageGlobal: models.DeferToApp}, models.Condition{MessageGlobal: models.ForceOff})
		d := ResolveConfig(g, a)
		assert.Equal(t, "app success", d.Messages.Success.Text)
	})

	t.Run("global messages when global defers and app opts in", func(t *testing.T) {
		g, a := testConfigs(models.Condition{MessageGlobal: models.DeferToApp}, models.Condition{MessageGlobal: models.ForceOn})
		d := ResolveConfig(g, a)
		assert.Equal(t, "global error", d.Messages.Error.Text)
	})
}

func TestResolveConfigCORS(t *testing.T) {
	t.Run("enforced pins allow origin to app url", func(t *testing.T) {
		g, a := testConfigs(models.Condition{CORSBypass: models.ForceOff}, models.Condition{})
		d := ResolveConfig(g, a)
		assert.True(t, d.EnforceCORS)
		assert.Equal(t, "https://acme.example.com", d.AllowOrigin)
	})

	t.Run("bypass allows any origin", func(t *testing.T) {
		g, a := testConfigs(models.Condition{CORSBypass: models.ForceOn}, models.Condition{})
		d := ResolveConfig(g, a)
		assert.False(t, d.EnforceCORS)
		assert.Equal(t, "*", d.AllowOrigin)
	})

	t.Run("deferred bypass uses app value", func(t *testing.T) {
		g, a := testConfigs(models.Condition{CORSBypass: models.DeferToApp}, models.Condition{CORSBypass: models.ForceOn})
		d := ResolveConfig(g, a)
		assert.False(t, d.EnforceCORS)
	})
}

func TestResolveConfigGates(t *testing.T) {
	g, a := testConfigs(
		models.Condition{SubmitForm: models.DeferToApp, SpamFilter: models.ForceOff},
		models.Condition{SubmitForm: models.ForceOn, SpamFilter: models.ForceOn},
	)
	d := ResolveConfig(g, a)
	assert.True(t, d.SubmitOn)
	assert.False(t, d.SpamCheckOn, "global off must override app-enabled spam filter")
}
