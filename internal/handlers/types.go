package handlers

// ConvertRequest is the request body for converting markdown to HTML.
type ConvertRequest struct {
	Body struct {
		Markdown    string `doc:"Pseudo-markdown to convert"        example:"# Hello World" json:"markdown"    minLength:"1"`
		StylePrompt string `doc:"Free-form description of the look" example:"dark, minimal" json:"stylePrompt" required:"false"`
	}
}

// ConvertResponse is the response for a successful conversion.
type ConvertResponse struct {
	Body struct {
		ID   string `doc:"Conversion identifier" example:"V1StGXR8"       json:"id"`
		HTML string `doc:"Generated document"    example:"<html>...</html>" json:"html"`
	}
}

// QuotaResponse is the response for the quota status endpoint.
type QuotaResponse struct {
	Body struct {
		CallerID          string `doc:"Caller address the quota is tracked for"          example:"203.0.113.7"               json:"callerId"`
		RequestsMade      int    `doc:"Requests made today, -1 when allow-listed"        example:"3"                         json:"requestsMade"`
		RequestsRemaining int    `doc:"Requests left today, -1 when allow-listed"        example:"7"                         json:"requestsRemaining"`
		InitialQuota      int    `doc:"Same as requestsRemaining, for view layers"       example:"7"                         json:"initialQuota"`
		ResetTime         string `doc:"End of the current day in US Pacific time"        example:"2026-10-14T23:59:59-07:00" json:"resetTime"`
		IsAllowListed     bool   `doc:"Whether the caller is exempt from the daily quota" example:"false"                    json:"isAllowListed"`
	}
}
