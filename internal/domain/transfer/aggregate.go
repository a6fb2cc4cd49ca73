package transfer

import "github.com/lloydmeta/banques/internal/domain/eventlog"

// Behavior is the transfer state machine:
// Uninitialized → Opened → Completed | Failed | Canceled.
// The terminal states never transition again.
type Behavior struct{}

func (Behavior) AggregateType() eventlog.AggregateType {
	return AggregateType
}

func (Behavior) Initial(id eventlog.ID) Transfer {
	return Transfer{ID: id, Status: UNINITIALIZED}
}

func (Behavior) Transition(current Transfer, command Command) ([]Event, error) {
	switch cmd := command.(type) {
	case Open:
		if current.Status != UNINITIALIZED {
			return nil, AlreadyExists{ID: current.ID}
		}
		return []Event{Opened{Config: cmd.Config}}, nil
	case Complete:
		if current.Status != OPENED {
			return nil, InvalidState{ID: current.ID, Status: current.Status}
		}
		return []Event{Completed{Timestamp: cmd.Timestamp}}, nil
	case Fail:
		if current.Status != OPENED {
			return nil, InvalidState{ID: current.ID, Status: current.Status}
		}
		return []Event{Failed{Reason: cmd.Reason, Timestamp: cmd.Timestamp}}, nil
	case Cancel:
		if current.Status == UNINITIALIZED {
			return nil, NotFound{ID: current.ID}
		}
		if current.Status != OPENED {
			return nil, InvalidState{ID: current.ID, Status: current.Status}
		}
		return []Event{Canceled{Reason: cmd.Reason}}, nil
	default:
		return nil, NotFound{ID: current.ID}
	}
}

func (Behavior) Apply(current Transfer, event Event) Transfer {
	switch ev := event.(type) {
	case Opened:
		return Transfer{ID: current.ID, Status: OPENED, Config: ev.Config}
	case Completed:
		current.Status = COMPLETED
		current.SettledAt = ev.Timestamp
		return current
	case Failed:
		current.Status = FAILED
		current.Reason = ev.Reason
		current.SettledAt = ev.Timestamp
		return current
	case Canceled:
		current.Status = CANCELED
		current.Reason = ev.Reason
		return current
	default:
		return current
	}
}
