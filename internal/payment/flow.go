package payment

import "fmt"

// FlowState описывает состояние одной попытки оплаты.
type FlowState string

const (
	FlowIdle          FlowState = "idle"
	FlowTokenizing    FlowState = "tokenizing"
	FlowIntentCreated FlowState = "intent_created"
	FlowConfirming    FlowState = "confirming"
	FlowSucceeded     FlowState = "succeeded"
	FlowFailed        FlowState = "failed"
)

var flowTransitions = map[FlowState][]FlowState{
	FlowIdle:          {FlowTokenizing},
	FlowTokenizing:    {FlowIntentCreated, FlowFailed},
	FlowIntentCreated: {FlowConfirming, FlowSucceeded, FlowFailed},
	FlowConfirming:    {FlowSucceeded, FlowFailed},
}

// Flow отслеживает прохождение платёжного сценария.
// Любая ошибка провайдера переводит сценарий в FlowFailed без повтора.
type Flow struct {
	state FlowState
}

// NewFlow создаёт сценарий в исходном состоянии.
func NewFlow() *Flow {
	return &Flow{state: FlowIdle}
}

// State возвращает текущее состояние сценария.
func (f *Flow) State() FlowState {
	return f.state
}

// Terminal сообщает, завершён ли сценарий.
func (f *Flow) Terminal() bool {
	return f.state == FlowSucceeded || f.state == FlowFailed
}

// To переводит сценарий в следующее состояние, проверяя допустимость перехода.
func (f *Flow) To(next FlowState) error {
	for _, allowed := range flowTransitions[f.state] {
		if next == allowed {
			f.state = next
			return nil
		}
	}
	return fmt.Errorf("invalid payment flow transition: %s -> %s", f.state, next)
}
