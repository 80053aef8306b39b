package handler

// updateReportRequest is the JSON shape for PUT /api/reports/:id. Pointer
// fields distinguish "omitted" from "set to empty": only fields present in
// the payload are applied.
type updateReportRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// updateStatusRequest is the JSON shape for the admin status route.
type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending 'In Progress' Resolved"`
}
