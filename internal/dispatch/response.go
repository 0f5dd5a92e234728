package dispatch

import (
	"encoding/json"
	"fmt"
)

// snippetLimit — объём сырого ответа, сохраняемый для диагностики.
const snippetLimit = 500

// MalformedResponseError — бекенд вернул не-JSON либо неожиданный конверт.
// Snippet содержит начало сырого ответа для диагностики.
type MalformedResponseError struct {
	Snippet string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed backend response: %s", e.Snippet)
}

// Result — нормализованный ответ бекенда независимо от формы конверта.
type Result struct {
	OK      bool
	Message string
	Err     string
}

type responseEnvelope struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

type responseBody struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NormalizeResponse приводит ответ бекенда к единому виду. Поддерживаются две
// формы: плоский JSON и конверт {statusCode, body}, который добавляет шлюз
// перед бекендом; body внутри конверта может быть как объектом, так и строкой
// с сериализованным JSON.
func NormalizeResponse(raw []byte, httpStatus int) (*Result, error) {
	var probe json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, &MalformedResponseError{Snippet: snippet(raw)}
	}

	effectiveStatus := httpStatus
	payload := raw

	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.StatusCode != 0 && len(env.Body) > 0 {
		effectiveStatus = env.StatusCode
		payload = env.Body

		// Шлюз может сериализовать body строкой: внутри либо JSON,
		// либо простой текст, который считается сообщением.
		var inner string
		if err := json.Unmarshal(env.Body, &inner); err == nil {
			if !json.Valid([]byte(inner)) {
				return &Result{
					OK:      effectiveStatus >= 200 && effectiveStatus < 300,
					Message: inner,
				}, nil
			}
			payload = []byte(inner)
		}
	}

	var body responseBody
	if err := json.Unmarshal(payload, &body); err != nil {
		// Строковое body без JSON внутри трактуется как сообщение.
		var plain string
		if err := json.Unmarshal(payload, &plain); err != nil {
			return nil, &MalformedResponseError{Snippet: snippet(raw)}
		}
		body.Message = plain
	}

	ok := effectiveStatus >= 200 && effectiveStatus < 300
	if body.Success != nil {
		ok = *body.Success
	}

	return &Result{
		OK:      ok,
		Message: body.Message,
		Err:     body.Error,
	}, nil
}

func snippet(raw []byte) string {
	if len(raw) > snippetLimit {
		raw = raw[:snippetLimit]
	}
	return string(raw)
}
