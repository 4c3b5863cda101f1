package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskCallbackReminder = "leads.callback_reminder"

type CallbackReminderPayload struct {
	LeadID       int64     `json:"leadId"`
	OwnerUserID  int64     `json:"ownerUserId"`
	Status       string    `json:"status"`
	ScheduledFor time.Time `json:"scheduledFor"`
}

func NewCallbackReminderTask(payload CallbackReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCallbackReminder, data), nil
}

func ParseCallbackReminderPayload(task *asynq.Task) (CallbackReminderPayload, error) {
	var payload CallbackReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CallbackReminderPayload{}, err
	}
	return payload, nil
}
