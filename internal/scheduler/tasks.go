package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"medcrm_backend/internal/events"
)

const TaskLeadWelcome = "leads.notify.welcome"

const TaskLeadAdvisorNotice = "leads.notify.advisor"

// LeadNotificationPayload is the created-lead snapshot both notification
// tasks carry. Workers never re-read the customer store.
type LeadNotificationPayload = events.LeadCreated

func newLeadTask(taskType string, payload LeadNotificationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

func NewLeadWelcomeTask(payload LeadNotificationPayload) (*asynq.Task, error) {
	return newLeadTask(TaskLeadWelcome, payload)
}

func NewLeadAdvisorNoticeTask(payload LeadNotificationPayload) (*asynq.Task, error) {
	return newLeadTask(TaskLeadAdvisorNotice, payload)
}

func ParseLeadNotificationPayload(task *asynq.Task) (LeadNotificationPayload, error) {
	var payload LeadNotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadNotificationPayload{}, err
	}
	return payload, nil
}
