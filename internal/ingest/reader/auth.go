package reader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// ErrSignupNotSupported indicates that signup is not supported. The
// account running the userbot must already exist.
var ErrSignupNotSupported = errors.New("signup not supported")

// minPhoneDigits is a sanity floor; anything shorter is almost
// certainly missing the country code.
const minPhoneDigits = 10

func (r *Reader) authFlow() auth.Flow {
	return auth.NewFlow(r, auth.SendCodeOptions{})
}

// promptLine reads one trimmed line from stdin. Used on first login
// only; afterwards the session file carries the credentials.
func promptLine(label string) (string, error) {
	fmt.Print(label)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(strings.TrimSuffix(label, ": ")), err)
	}

	return strings.TrimSpace(line), nil
}

func (r *Reader) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return promptLine("Enter code: ")
}

func (r *Reader) Phone(_ context.Context) (string, error) {
	phone := r.cfg.TGPhone
	if phone == "" {
		var err error

		phone, err = promptLine("Enter phone: ")
		if err != nil {
			return "", err
		}
	}

	phone = r.sanitizePhone(phone)
	r.logger.Info().Str("phone", r.maskPhone(phone)).Msg("logging in")

	if len(phone) < minPhoneDigits {
		r.logger.Warn().Int("length", len(phone)).Msg("phone looks too short, check the country code")
	}

	return phone, nil
}

func (r *Reader) Password(_ context.Context) (string, error) {
	if r.cfg.TG2FAPassword != "" {
		return r.cfg.TG2FAPassword, nil
	}

	return promptLine("Enter 2FA password: ")
}

func (r *Reader) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func (r *Reader) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, ErrSignupNotSupported
}
