package capability

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
)

func TestClean_RemovesUndefinedAtEveryLevel(t *testing.T) {
	caps := map[string]interface{}{
		"platformName":             "iOS",
		"appium:udid":              nil,
		"appium:webDriverAgentUrl": "undefined",
		"appium:noReset":           false,
		"appium:wdaStartupRetries": 0,
		"appium:bundleId":          "",
		"appium:settings": map[string]interface{}{
			"snapshotMaxDepth": nil,
			"waitForIdle":      "undefined",
			"animationCoolOff": 0,
			"deep": map[string]interface{}{
				"a": "undefined",
				"b": false,
			},
		},
		"appium:processArguments": []interface{}{"undefined", nil},
	}

	got := Clean(caps)

	want := map[string]interface{}{
		"platformName":             "iOS",
		"appium:noReset":           false,
		"appium:wdaStartupRetries": 0,
		"appium:bundleId":          "",
		"appium:settings": map[string]interface{}{
			"animationCoolOff": 0,
			"deep": map[string]interface{}{
				"b": false,
			},
		},
		"appium:processArguments": []interface{}{"undefined", nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Clean() mismatch (-want +got):\n%s", diff)
	}
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	nested := map[string]interface{}{"x": nil}
	caps := map[string]interface{}{"a": "undefined", "n": nested}

	_ = Clean(caps)

	assert.Contains(t, caps, "a")
	assert.Contains(t, nested, "x")
}

func TestVerify(t *testing.T) {
	require.NoError(t, Verify(map[string]interface{}{"platformName": "iOS", "n": 0}))

	err := Verify(map[string]interface{}{
		"appium:app": nil,
		"appium:settings": map[string]interface{}{
			"snapshotMaxDepth": "undefined",
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "appium:app")
	assert.Contains(t, err.Error(), "appium:settings.snapshotMaxDepth")
}

func TestPrepare(t *testing.T) {
	caps, err := Prepare(map[string]interface{}{"platformName": "iOS", "appium:udid": nil})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"platformName": "iOS"}, caps)
}

func TestRemoveKeys(t *testing.T) {
	caps := map[string]interface{}{
		"platformName":             "iOS",
		"appium:webDriverAgentUrl": "http://127.0.0.1:8100",
		"appium:useNewWDA":         false,
	}

	got := RemoveKeys(caps, "appium:webDriverAgentUrl", "missing")

	assert.Equal(t, map[string]interface{}{
		"platformName":     "iOS",
		"appium:useNewWDA": false,
	}, got)
	assert.Len(t, caps, 3, "input must be untouched")
}

func TestIsUndefined(t *testing.T) {
	assert.True(t, IsUndefined(nil))
	assert.True(t, IsUndefined("undefined"))
	assert.False(t, IsUndefined("Undefined"))
	assert.False(t, IsUndefined(""))
	assert.False(t, IsUndefined(0))
	assert.False(t, IsUndefined(false))
}
