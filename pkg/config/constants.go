package config

const (
	EnvPrefix = "WARUNG"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	PrinterTypeRawBT   = "rawbt"
	PrinterTypeNetwork = "network"
	PrinterTypeUSB     = "usb"
	PrinterTypeNone    = "none"
)

const (
	EnvAppEnv            = "WARUNG_APP_ENV"
	EnvPort              = "WARUNG_APP_PORT"
	EnvDBDSN             = "WARUNG_DB_DSN"
	EnvDBHost            = "WARUNG_DB_HOST"
	EnvDBUser            = "WARUNG_DB_USER"
	EnvDBName            = "WARUNG_DB_NAME"
	EnvUseSQLite         = "WARUNG_USE_SQLITE"
	EnvRedisURL          = "WARUNG_REDIS_URL"
	EnvJWTSecret         = "WARUNG_JWT_SECRET"
	EnvJWTIssuer         = "WARUNG_JWT_ISSUER"
	EnvPrinterType       = "WARUNG_PRINTER_TYPE"
	EnvPrinterAddress    = "WARUNG_PRINTER_ADDRESS"
	EnvPrinterDevicePath = "WARUNG_PRINTER_DEVICE_PATH"
	EnvReceiptWidth      = "WARUNG_RECEIPT_WIDTH"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
