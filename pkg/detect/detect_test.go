package detect

import (
	"testing"

	"github.com/aretw0/apc/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_Rethink(t *testing.T) {
	d := Default()
	c := domain.NewContext()
	c.ActiveTopicID = "checkout"

	inputs := []string{
		"This flow feels wrong",
		"we should RETHINK the UX here",
		"it doesn't make sense to me",
		"it doesn’t feel right",
		"I think we designed this incorrectly",
		"flow này sai rồi",
		"thiết kế lại đi",
		"cái này không hợp lý",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got := d.Detect(c, in)
			assert.True(t, got.Rethink)
			require.NotEmpty(t, got.Events)
			assert.Equal(t, domain.EventRethinkDetected, got.Events[0].Type)
			assert.Equal(t, "checkout", got.Events[0].TopicID())
			assert.Empty(t, got.Actions, "rethink does not count iterations")
		})
	}
}

func TestDetect_Iteration(t *testing.T) {
	d := Default()

	t.Run("Below threshold", func(t *testing.T) {
		c := domain.NewContext()
		c.Iterations[domain.DefaultTopic] = 1
		got := d.Detect(c, "what if we try another layout?")

		assert.True(t, got.Iteration)
		assert.Equal(t, []domain.Action{domain.IncrementIterations(domain.DefaultTopic)}, got.Actions)
		assert.Empty(t, got.Events, "2 < 3")
		assert.Equal(t, 1, c.Iterations[domain.DefaultTopic], "context untouched")
	})

	t.Run("Reaching threshold", func(t *testing.T) {
		c := domain.NewContext()
		c.Iterations[domain.DefaultTopic] = 2
		got := d.Detect(c, "let's rework it")
		require.Len(t, got.Events, 1)
		assert.Equal(t, domain.EventIterationThreshold, got.Events[0].Type)
	})

	t.Run("High sensitivity", func(t *testing.T) {
		c := domain.NewContext()
		c.Preferences.NudgeSensitivity = domain.SensitivityHigh
		c.Iterations[domain.DefaultTopic] = 1
		assert.Len(t, d.Detect(c, "still not sure").Events, 1)
	})

	t.Run("Vietnamese", func(t *testing.T) {
		c := domain.NewContext()
		assert.True(t, d.Detect(c, "thử cách khác xem").Iteration)
		assert.True(t, d.Detect(c, "chưa ổn lắm").Iteration)
	})
}

func TestDetect_Both(t *testing.T) {
	c := domain.NewContext()
	c.Iterations[domain.DefaultTopic] = 5
	got := Default().Detect(c, "the flow is off, what if we iterate once more")

	require.Len(t, got.Events, 2)
	assert.Equal(t, domain.EventRethinkDetected, got.Events[0].Type)
	assert.Equal(t, domain.EventIterationThreshold, got.Events[1].Type)
}

func TestDetect_Nothing(t *testing.T) {
	got := Default().Detect(domain.NewContext(), "please add a unit test for the parser")
	assert.Equal(t, Detection{}, got)
}

func TestDetect_ThresholdFiresOncePerIncrement(t *testing.T) {
	d := Default()
	c := domain.NewContext()

	fired := 0
	for i := 0; i < 5; i++ {
		got := d.Detect(c, "rework")
		domain.ApplyActions(c, got.Actions, domain.ApplyOptions{})
		if len(got.Events) > 0 {
			fired++
			assert.GreaterOrEqual(t, c.Iterations[domain.DefaultTopic], 3)
		}
	}
	assert.Equal(t, 3, fired, "counts 3, 4 and 5")
	assert.Empty(t, d.Detect(c, "nothing to see").Events)
}

func TestNew_CustomPatterns(t *testing.T) {
	d, err := New(WithRethinkPatterns(`back to the drawing board`), WithIterationPatterns(`one more variant`))
	require.NoError(t, err)

	c := domain.NewContext()
	assert.True(t, d.Detect(c, "Back to the drawing board").Rethink)
	assert.True(t, d.Detect(c, "one more variant please").Iteration)
	assert.True(t, d.Detect(c, "rework").Iteration, "defaults kept")

	only, err := New(WithoutDefaults(), WithIterationPatterns(`again`))
	require.NoError(t, err)
	assert.False(t, only.Detect(c, "rework").Iteration)
	assert.True(t, only.Detect(c, "again").Iteration)

	_, err = New(WithRethinkPatterns(`([`))
	assert.ErrorContains(t, err, "invalid rethink pattern")
}

func TestCheckpointBoundary(t *testing.T) {
	c := domain.NewContext()
	ev, ok := CheckpointBoundary(c, domain.ArtifactPlan)
	require.True(t, ok)
	assert.Equal(t, domain.EventCheckpointBoundary, ev.Type)
	assert.Equal(t, domain.ArtifactPlan, ev.ArtifactType())
	assert.Equal(t, domain.DefaultTopic, ev.TopicID())

	c.Step = 2
	c.LastMicroStep[domain.DefaultTopic] = 1
	_, ok = CheckpointBoundary(c, domain.ArtifactPlan)
	assert.False(t, ok, "cooldown")

	c = domain.NewContext()
	c.Mode = domain.ModeNudge
	_, ok = CheckpointBoundary(c, domain.ArtifactSpec)
	assert.False(t, ok, "not inline")
}
