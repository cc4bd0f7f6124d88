// Package services реализует отправку приветственных SMS
// по событиям регистрации из RabbitMQ.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/transit-monitor/internal/lib/sl"
	"github.com/magabrotheeeer/transit-monitor/internal/models"
	"github.com/magabrotheeeer/transit-monitor/internal/smsgateway"
)

// Transport описывает клиент SMS-шлюза.
type Transport interface {
	SendSMS(phoneNumber, text string) (*smsgateway.SendResponse, error)
}

// SenderService обрабатывает события регистрации и отправляет SMS.
type SenderService struct {
	transport Transport
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport Transport) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendWelcomeSMS разбирает событие регистрации и отправляет приветственное
// сообщение на номер нового пользователя.
func (s *SenderService) SendWelcomeSMS(body []byte) error {
	var event models.RegistrationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	text := fmt.Sprintf("Hi %s! Your transit-monitor account %s is ready. You can now track buses and view timetables.",
		event.FirstName, event.Username)

	resp, err := s.transport.SendSMS(event.PhoneNumber, text)
	if err != nil {
		s.log.Error("failed to send welcome sms", sl.Err(err))
		return err
	}
	s.log.Info("welcome sms sent",
		slog.String("username", event.Username),
		slog.String("message_id", resp.MessageID))
	return nil
}
