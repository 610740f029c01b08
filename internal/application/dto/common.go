package dto

// PageRequest paginación para listados (query string).
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// ErrorResponse cuerpo de error HTTP. Details lleva el detalle estructurado (faltantes, estado actual).
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ShortfallDTO faltante de una tupla en errores INSUFFICIENT_STOCK.
type ShortfallDTO struct {
	LocationID string `json:"location_id"`
	ProductID  string `json:"product_id"`
	Available  int64  `json:"available"`
	Requested  int64  `json:"requested"`
}
