package task

import "fmt"

// CompletionState is the terminal state of a task run.
type CompletionState int

const (
	NotCompleted CompletionState = iota
	Succeeded
	Failed
)

func (s CompletionState) String() string {
	switch s {
	case NotCompleted:
		return "not_completed"
	case Succeeded:
		return "success"
	case Failed:
		return "failure"
	default:
		return fmt.Sprintf("CompletionState(%d)", int(s))
	}
}

// CompletionStatus is a completion state plus the failure reason, if any.
type CompletionStatus struct {
	State  CompletionState
	Reason string
}

// Success returns a successful completion status.
func Success() CompletionStatus {
	return CompletionStatus{State: Succeeded}
}

// Failure returns a failed completion status with the given reason.
func Failure(reason string) CompletionStatus {
	return CompletionStatus{State: Failed, Reason: reason}
}

// IsCompleted reports whether the status is terminal.
func (s CompletionStatus) IsCompleted() bool {
	return s.State != NotCompleted
}

func (s CompletionStatus) String() string {
	if s.State == Failed && s.Reason != "" {
		return fmt.Sprintf("%s: %s", s.State, s.Reason)
	}
	return s.State.String()
}

// MessageKind identifies the variant of a run message.
type MessageKind int

const (
	KindStarted MessageKind = iota
	KindLogInfo
	KindLogError
	KindProgress
	KindCompleted
	KindError
)

func (k MessageKind) String() string {
	switch k {
	case KindStarted:
		return "started"
	case KindLogInfo:
		return "log_info"
	case KindLogError:
		return "log_error"
	case KindProgress:
		return "progress"
	case KindCompleted:
		return "completed"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("MessageKind(%d)", int(k))
	}
}

// Message travels on a per-run channel from the running action to the
// forwarding job. Only the fields relevant to Kind are set.
type Message struct {
	Kind     MessageKind
	TaskID   uint32
	Text     string
	Progress float64
	Status   CompletionStatus
}

// Terminal reports whether the message ends a run's message stream.
func (m Message) Terminal() bool {
	return m.Kind == KindCompleted || m.Kind == KindError
}

func Started(taskID uint32) Message {
	return Message{Kind: KindStarted, TaskID: taskID}
}

func LogInfo(taskID uint32, text string) Message {
	return Message{Kind: KindLogInfo, TaskID: taskID, Text: text}
}

func LogError(taskID uint32, text string) Message {
	return Message{Kind: KindLogError, TaskID: taskID, Text: text}
}

func ProgressUpdate(taskID uint32, ratio float64) Message {
	return Message{Kind: KindProgress, TaskID: taskID, Progress: ratio}
}

func Completed(taskID uint32, status CompletionStatus) Message {
	return Message{Kind: KindCompleted, TaskID: taskID, Status: status}
}

func ErrorMessage(taskID uint32, text string) Message {
	return Message{Kind: KindError, TaskID: taskID, Text: text}
}

// Sender is the outbound side of a run channel as seen by an action.
// Version: 1.0
type Sender interface {
	// Send delivers msg, blocking while the channel is full. It returns an
	// error wrapping ErrSendFailed once the receiver is gone.
	Send(msg Message) error
}

// CommandKind identifies a coordinator command.
type CommandKind int

const (
	CommandStartAction CommandKind = iota
	CommandShutdown
)

// Command is consumed by the coordinator's command loop.
type Command struct {
	Kind       CommandKind
	ActionName string
	DryRun     bool
	Options    Options
	TaskID     uint32
}

// ResponseKind identifies a message on the coordinator's outbound channel.
type ResponseKind int

const (
	ResponseStarted ResponseKind = iota
	ResponseLog
	ResponseErrorLog
	ResponseProgress
	ResponseCompleted
	ResponseFailed
	ResponseWorkerError
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseStarted:
		return "started"
	case ResponseLog:
		return "log"
	case ResponseErrorLog:
		return "error_log"
	case ResponseProgress:
		return "progress"
	case ResponseCompleted:
		return "completed"
	case ResponseFailed:
		return "failed"
	case ResponseWorkerError:
		return "worker_error"
	default:
		return fmt.Sprintf("ResponseKind(%d)", int(k))
	}
}

// Response is what the forwarding job re-emits for every run message, plus
// worker-level diagnostics raised by the command loop.
type Response struct {
	Kind     ResponseKind
	TaskID   uint32
	Text     string
	Progress float64
	Status   CompletionStatus
}

// responseFor maps a run message onto the outbound tier.
func responseFor(msg Message) Response {
	r := Response{TaskID: msg.TaskID, Text: msg.Text, Progress: msg.Progress, Status: msg.Status}
	switch msg.Kind {
	case KindStarted:
		r.Kind = ResponseStarted
	case KindLogInfo:
		r.Kind = ResponseLog
	case KindLogError:
		r.Kind = ResponseErrorLog
	case KindProgress:
		r.Kind = ResponseProgress
	case KindCompleted:
		r.Kind = ResponseCompleted
	case KindError:
		r.Kind = ResponseFailed
		r.Status = Failure(msg.Text)
	}
	return r
}
