package events

import (
	"context"
	"log/slog"
)

// RegisterLogSubscribers attaches the advisory log-line subscribers. They
// stand in for welcome emails and recruiter/applicant notifications.
func RegisterLogSubscribers(bus *Bus, logger *slog.Logger) {
	bus.Subscribe(UserRegistered, func(ctx context.Context, e Event) error {
		if ev, ok := e.(UserRegisteredEvent); ok {
			logger.InfoContext(ctx, "new user registered", "userId", ev.UserID, "email", ev.Email, "method", ev.Method)
		}
		return nil
	})
	bus.Subscribe(JobApplied, func(ctx context.Context, e Event) error {
		if ev, ok := e.(JobAppliedEvent); ok {
			logger.InfoContext(ctx, "new job application", "applicationId", ev.ApplicationID, "userId", ev.UserID, "jobId", ev.JobID, "recruiterId", ev.RecruiterID)
		}
		return nil
	})
	bus.Subscribe(ApplicationStatusChanged, func(ctx context.Context, e Event) error {
		if ev, ok := e.(ApplicationStatusChangedEvent); ok {
			logger.InfoContext(ctx, "application status changed", "applicationId", ev.ApplicationID, "status", string(ev.Status), "jobTitle", ev.JobTitle)
		}
		return nil
	})
	bus.Subscribe(ChatNewMessage, func(ctx context.Context, e Event) error {
		if ev, ok := e.(ChatNewMessageEvent); ok {
			logger.InfoContext(ctx, "new chat message", "senderId", ev.SenderID, "receiverId", ev.ReceiverID)
		}
		return nil
	})
}
