package errors

import "net/http"

// ErrorCode identifies an error condition on the wire.  Codes are
// "<MODULE>_<nnn>" and never change meaning once published, since SDK
// clients branch on them.
type ErrorCode string

func (c ErrorCode) String() string { return string(c) }

// Sentinel codes returned by GetCode.
const (
	CodeUnknown ErrorCode = ""
	CodeOK      ErrorCode = "OK"
)

// Common
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeMethodNotAllowed   ErrorCode = "COMMON_016"
)

// Dataset ingestion
const (
	ErrCodeProductInvalidPrice   ErrorCode = "PRODUCT_001"
	ErrCodeProductInvalidRating  ErrorCode = "PRODUCT_002"
	ErrCodeProductInvalidField   ErrorCode = "PRODUCT_003"
	ErrCodeProductDuplicateASIN  ErrorCode = "PRODUCT_004"
	ErrCodeKeywordDataInvalid    ErrorCode = "PRODUCT_006"
	ErrCodeDatasetKeywordMissing ErrorCode = "PRODUCT_008"
)

// Analysis
const (
	ErrCodeAnalysisConfigInvalid  ErrorCode = "ANALYSIS_002"
	ErrCodeAnalysisRunNotFound    ErrorCode = "ANALYSIS_003"
	ErrCodeAnalysisWeightsInvalid ErrorCode = "ANALYSIS_004"
)

// Reports
const (
	ErrCodeReportRenderFailed  ErrorCode = "REPORT_001"
	ErrCodeReportFormatInvalid ErrorCode = "REPORT_002"
	ErrCodeReportUploadFailed  ErrorCode = "REPORT_003"
)

// Infrastructure
const (
	ErrCodeStorageError     ErrorCode = "STORAGE_001"
	ErrCodeObjectNotFound   ErrorCode = "STORAGE_002"
	ErrCodeCacheMiss        ErrorCode = "CACHE_001"
	ErrCodeCacheUnavailable ErrorCode = "CACHE_002"
	ErrCodeMessagePublish   ErrorCode = "MSG_001"
	ErrCodeProducerClosed   ErrorCode = "MSG_002"
	ErrCodeMarketDataFetch  ErrorCode = "MARKET_001"
	ErrCodeMarketDataDecode ErrorCode = "MARKET_002"
)

type codeInfo struct {
	status  int
	message string
}

// registry holds the HTTP status and public message of every code.
var registry = map[ErrorCode]codeInfo{
	ErrCodeInternal:           {http.StatusInternalServerError, "internal server error"},
	ErrCodeBadRequest:         {http.StatusBadRequest, "bad request"},
	ErrCodeNotFound:           {http.StatusNotFound, "resource not found"},
	ErrCodeConflict:           {http.StatusConflict, "resource conflict"},
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, "service unavailable"},
	ErrCodeTimeout:            {http.StatusGatewayTimeout, "request timed out"},
	ErrCodeValidation:         {http.StatusUnprocessableEntity, "validation failed"},
	ErrCodeSerialization:      {http.StatusBadRequest, "malformed payload"},
	ErrCodeDatabaseError:      {http.StatusInternalServerError, "database error"},
	ErrCodeCacheError:         {http.StatusInternalServerError, "cache error"},
	ErrCodeMethodNotAllowed:   {http.StatusMethodNotAllowed, "method not allowed"},

	ErrCodeProductInvalidPrice:   {http.StatusUnprocessableEntity, "product price must not be negative"},
	ErrCodeProductInvalidRating:  {http.StatusUnprocessableEntity, "product rating must be within [0,5]"},
	ErrCodeProductInvalidField:   {http.StatusUnprocessableEntity, "product field out of range"},
	ErrCodeProductDuplicateASIN:  {http.StatusUnprocessableEntity, "duplicate asin in dataset"},
	ErrCodeKeywordDataInvalid:    {http.StatusUnprocessableEntity, "keyword market data out of range"},
	ErrCodeDatasetKeywordMissing: {http.StatusBadRequest, "dataset keyword is required"},

	ErrCodeAnalysisConfigInvalid:  {http.StatusInternalServerError, "analysis configuration invalid"},
	ErrCodeAnalysisRunNotFound:    {http.StatusNotFound, "analysis run not found"},
	ErrCodeAnalysisWeightsInvalid: {http.StatusInternalServerError, "analysis weights must sum to 1"},

	ErrCodeReportRenderFailed:  {http.StatusInternalServerError, "report rendering failed"},
	ErrCodeReportFormatInvalid: {http.StatusBadRequest, "unsupported report format"},
	ErrCodeReportUploadFailed:  {http.StatusBadGateway, "report upload failed"},

	ErrCodeStorageError:     {http.StatusInternalServerError, "object storage error"},
	ErrCodeObjectNotFound:   {http.StatusNotFound, "object not found"},
	ErrCodeCacheMiss:        {http.StatusNotFound, "cache miss"},
	ErrCodeCacheUnavailable: {http.StatusServiceUnavailable, "cache unavailable"},
	ErrCodeMessagePublish:   {http.StatusInternalServerError, "message publish failed"},
	ErrCodeProducerClosed:   {http.StatusServiceUnavailable, "producer closed"},
	ErrCodeMarketDataFetch:  {http.StatusBadGateway, "market data fetch failed"},
	ErrCodeMarketDataDecode: {http.StatusBadGateway, "market data decode failed"},
}

// HTTPStatusForCode returns the status an API response carries for code.
// Unregistered codes are internal errors.
func HTTPStatusForCode(code ErrorCode) int {
	if info, ok := registry[code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the public message of code.
func DefaultMessageForCode(code ErrorCode) string {
	if info, ok := registry[code]; ok {
		return info.message
	}
	return "unknown error"
}
