// Package events is the in-process domain event bus. Publishing never fails
// the caller: subscriber errors and panics are logged and swallowed.
package events

import "github.com/jobportal/apiserver/types"

// Name identifies a domain event channel.
type Name string

const (
	UserRegistered           Name = "user:registered"
	JobApplied               Name = "job:applied"
	ApplicationStatusChanged Name = "application:statusChanged"
	ChatNewMessage           Name = "chat:newMessage"
)

// Names lists every channel the bus knows about.
var Names = []Name{UserRegistered, JobApplied, ApplicationStatusChanged, ChatNewMessage}

// Event is a typed domain event payload.
type Event interface {
	EventName() Name
}

// UserRegisteredEvent is published after an account is created.
type UserRegisteredEvent struct {
	UserID int    `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Method string `json:"method"`
}

func (UserRegisteredEvent) EventName() Name { return UserRegistered }

// JobAppliedEvent is published after an application is submitted.
type JobAppliedEvent struct {
	ApplicationID int `json:"applicationId"`
	UserID        int `json:"userId"`
	JobID         int `json:"jobId"`
	RecruiterID   int `json:"recruiterId"`
}

func (JobAppliedEvent) EventName() Name { return JobApplied }

// ApplicationStatusChangedEvent is published after a recruiter changes an application's status.
type ApplicationStatusChangedEvent struct {
	ApplicationID int                     `json:"applicationId"`
	UserID        int                     `json:"userId"`
	Status        types.ApplicationStatus `json:"status"`
	JobTitle      string                  `json:"jobTitle"`
}

func (ApplicationStatusChangedEvent) EventName() Name { return ApplicationStatusChanged }

// ChatNewMessageEvent is published after a chat message is persisted.
type ChatNewMessageEvent struct {
	MessageID  int64  `json:"messageId"`
	SenderID   int    `json:"senderId"`
	ReceiverID int    `json:"receiverId"`
	Message    string `json:"message"`
}

func (ChatNewMessageEvent) EventName() Name { return ChatNewMessage }
