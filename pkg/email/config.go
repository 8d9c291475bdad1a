package email

// Driver names accepted by Config.Driver.
const (
	DriverLog      = "log"
	DriverFile     = "file"
	DriverPostmark = "postmark"
)

// Config selects and configures the outbound mail sender.
// Postmark tokens are only required for the postmark driver.
type Config struct {
	Driver               string `env:"EMAIL_DRIVER" envDefault:"log"`
	From                 string `env:"EMAIL_FROM" envDefault:"no-reply@authcore.local"`
	ReplyTo              string `env:"EMAIL_REPLY_TO"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"tmp/emails"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
}
