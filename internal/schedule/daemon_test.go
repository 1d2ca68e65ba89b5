package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCronSpec(t *testing.T) {
	tests := []struct {
		name    string
		time    string
		want    string
		wantErr bool
	}{
		{name: "default nightly", time: "02:00", want: "0 2 * * *"},
		{name: "midnight", time: "00:00", want: "0 0 * * *"},
		{name: "late evening", time: "23:45", want: "45 23 * * *"},
		{name: "missing minute", time: "02", wantErr: true},
		{name: "hour out of range", time: "24:00", wantErr: true},
		{name: "minute out of range", time: "02:60", wantErr: true},
		{name: "not numeric", time: "two:ten", wantErr: true},
		{name: "empty", time: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := cronSpec(tt.time)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, spec)
		})
	}
}

func TestNewDaemonRejectsBadTime(t *testing.T) {
	runner := NewRunner(testSchedulerConfig(t), []string{"true"}, testUI())

	_, err := NewDaemon(runner, "9am", testUI())
	assert.Error(t, err)
}
