package domain

// AppointmentDetails хранит то, что распознала модель или ввёл пользователь.
// Date и Time остаются свободным текстом: формат не гарантирован ни моделью,
// ни пользователем, нормализацией занимается schedule_service.
type AppointmentDetails struct {
	Title             string `json:"title"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	Location          string `json:"location"`
	Doctor            string `json:"doctor"`
	Notes             string `json:"notes"`
	AppointmentNumber string `json:"appointmentNumber"`
}

// SavedAppointment - запись после сохранения. ID назначается при первом
// сохранении и служит ключом для upsert/delete в таблице, CreatedAt не
// меняется при редактировании.
type SavedAppointment struct {
	AppointmentDetails
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
}
