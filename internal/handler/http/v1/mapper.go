package v1

import "github.com/DevanshVerma21/SafeNow/internal/models"

func dtoToLocation(dto LocationDTO) models.Location {
	loc := models.Location{Accuracy: dto.Accuracy, Address: dto.Address}
	if dto.Lat != nil {
		loc.Latitude = *dto.Lat
	}
	if dto.Lng != nil {
		loc.Longitude = *dto.Lng
	}
	return loc
}

func locationToDTO(loc models.Location) LocationDTO {
	lat, lng := loc.Latitude, loc.Longitude
	return LocationDTO{Lat: &lat, Lng: &lng, Accuracy: loc.Accuracy, Address: loc.Address}
}

// DTOToNewAlert преобразует запрос создания в входные данные сервиса
func DTOToNewAlert(dto CreateAlertRequest) models.NewAlert {
	return models.NewAlert{
		Type:        models.AlertType(dto.Type),
		Note:        dto.Note,
		Location:    dtoToLocation(dto.Location),
		Severity:    dto.Severity,
		Attachments: dto.Attachments,
	}
}

// DTOToHeartbeat преобразует сигнал присутствия
func DTOToHeartbeat(dto HeartbeatRequest) models.Heartbeat {
	hb := models.Heartbeat{
		ResponderID: dto.ResponderID,
		Type:        models.ResponderType(dto.Type),
		Status:      models.ResponderStatus(dto.Status),
	}
	if dto.Location != nil {
		loc := dtoToLocation(*dto.Location)
		hb.Location = &loc
	}
	return hb
}

// ModelToAlertResponse преобразует доменную модель в DTO для ответа
func ModelToAlertResponse(model *models.Alert) *AlertResponse {
	attachments := model.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return &AlertResponse{
		ID:           model.ID,
		UserID:       model.UserID,
		Type:         string(model.Type),
		Note:         model.Note,
		Location:     locationToDTO(model.Location),
		Severity:     model.Severity,
		Attachments:  attachments,
		Status:       string(model.Status),
		AssignedTo:   model.AssignedTo,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
		ResolvedAt:   model.ResolvedAt,
		MarkedDoneAt: model.MarkedDoneAt,
		AutoDeleteAt: model.AutoDeleteAt,
	}
}

// ModelsToAlertResponses преобразует слайс моделей в слайс DTO
func ModelsToAlertResponses(alerts []*models.Alert) []*AlertResponse {
	responses := make([]*AlertResponse, len(alerts))
	for i, alert := range alerts {
		responses[i] = ModelToAlertResponse(alert)
	}
	return responses
}

func ModelToResponderResponse(model *models.Responder) *ResponderResponse {
	resp := &ResponderResponse{
		ID:            model.ID,
		UserID:        model.UserID,
		Type:          string(model.Type),
		Status:        string(model.Status),
		LastHeartbeat: model.LastHeartbeat,
	}
	if model.LastLocation != nil {
		loc := locationToDTO(*model.LastLocation)
		resp.LastLocation = &loc
	}
	return resp
}
