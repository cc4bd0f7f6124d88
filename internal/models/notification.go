package models

// RegistrationEvent — сообщение о новой регистрации,
// публикуемое в RabbitMQ для отправки приветственного SMS.
type RegistrationEvent struct {
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	PhoneNumber string `json:"phone_number"`
}
