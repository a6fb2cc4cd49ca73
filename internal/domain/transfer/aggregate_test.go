package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

var behavior = Behavior{}

var config = Config{
	FromAccount: "a",
	ToAccount:   "b",
	Asset:       "USD",
	Amount:      100,
	Timestamp:   1000,
	Description: "rent",
}

func openedTransfer(id eventlog.ID) Transfer {
	return behavior.Apply(behavior.Initial(id), Opened{Config: config})
}

func TestBehavior_Transition(t *testing.T) {
	type testCase struct {
		name        string
		current     Transfer
		command     Command
		expected    []Event
		expectedErr error
	}
	cases := []testCase{
		{
			name:     "open a fresh transfer",
			current:  behavior.Initial("tsf"),
			command:  Open{Config: config},
			expected: []Event{Opened{Config: config}},
		},
		{
			name:        "open the same id twice",
			current:     openedTransfer("tsf"),
			command:     Open{Config: config},
			expectedErr: AlreadyExists{ID: "tsf"},
		},
		{
			name:     "complete an opened transfer",
			current:  openedTransfer("tsf"),
			command:  Complete{Timestamp: 1001},
			expected: []Event{Completed{Timestamp: 1001}},
		},
		{
			name:        "complete before opening",
			current:     behavior.Initial("tsf"),
			command:     Complete{Timestamp: 1001},
			expectedErr: InvalidState{ID: "tsf", Status: UNINITIALIZED},
		},
		{
			name:     "fail an opened transfer",
			current:  openedTransfer("tsf"),
			command:  Fail{Reason: "no funds", Timestamp: 1001},
			expected: []Event{Failed{Reason: "no funds", Timestamp: 1001}},
		},
		{
			name:        "fail a completed transfer",
			current:     behavior.Apply(openedTransfer("tsf"), Completed{Timestamp: 1001}),
			command:     Fail{Reason: "no funds", Timestamp: 1002},
			expectedErr: InvalidState{ID: "tsf", Status: COMPLETED},
		},
		{
			name:     "cancel an opened transfer",
			current:  openedTransfer("tsf"),
			command:  Cancel{Reason: "fat fingers"},
			expected: []Event{Canceled{Reason: "fat fingers"}},
		},
		{
			name:        "cancel before opening",
			current:     behavior.Initial("tsf"),
			command:     Cancel{},
			expectedErr: NotFound{ID: "tsf"},
		},
		{
			name:        "cancel a completed transfer",
			current:     behavior.Apply(openedTransfer("tsf"), Completed{Timestamp: 1001}),
			command:     Cancel{},
			expectedErr: InvalidState{ID: "tsf", Status: COMPLETED},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events, err := behavior.Transition(tc.current, tc.command)
			if tc.expectedErr != nil {
				assert.EqualValues(t, tc.expectedErr, err)
			} else {
				assert.NoError(t, err)
				assert.EqualValues(t, tc.expected, events)
			}
		})
	}
}

func TestBehavior_Apply(t *testing.T) {
	opened := openedTransfer("tsf")
	assert.EqualValues(t, OPENED, opened.Status)
	assert.EqualValues(t, config, opened.Config)

	completed := behavior.Apply(opened, Completed{Timestamp: 1001})
	assert.EqualValues(t, COMPLETED, completed.Status)
	assert.EqualValues(t, 1001, completed.SettledAt)

	failed := behavior.Apply(opened, Failed{Reason: "no funds", Timestamp: 1002})
	assert.EqualValues(t, FAILED, failed.Status)
	assert.EqualValues(t, "no funds", failed.Reason)

	canceled := behavior.Apply(opened, Canceled{Reason: "fat fingers"})
	assert.EqualValues(t, CANCELED, canceled.Status)
	assert.EqualValues(t, "fat fingers", canceled.Reason)
}

func TestUpdateView(t *testing.T) {
	view := UpdateView(NewView("tsf"), eventlog.Envelope{AggregateID: "tsf"}, Opened{Config: config})
	assert.EqualValues(t, "tsf", view.TransferID)
	assert.EqualValues(t, OPENED, view.Status)
	assert.EqualValues(t, "a", view.FromAccount)
	assert.EqualValues(t, "b", view.ToAccount)
	assert.EqualValues(t, 100, view.Amount)

	settled := UpdateView(view, eventlog.Envelope{}, Completed{Timestamp: 1001})
	assert.EqualValues(t, COMPLETED, settled.Status)
	assert.EqualValues(t, 1001, settled.SettledAt)

	failed := UpdateView(view, eventlog.Envelope{}, Failed{Reason: "no funds", Timestamp: 1002})
	assert.EqualValues(t, FAILED, failed.Status)
	assert.EqualValues(t, "no funds", failed.Reason)
}
