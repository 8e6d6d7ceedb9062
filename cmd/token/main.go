// Command token mints a bearer token for an account e-mail, signed with the
// key from the application config. Sign-in itself happens upstream.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/innopoints/innopoints-api/internal/config"
	"github.com/innopoints/innopoints-api/internal/pkg/jwthelper"
)

func main() {
	configPath := flag.String("config", "./cmd/app/config.yml", "path to the application config")
	email := flag.String("email", "", "account e-mail to put in the token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to api.jwt_ttl")
	flag.Parse()

	if err := run(*configPath, *email, *ttl); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, email string, ttl time.Duration) error {
	if email == "" {
		return errors.New("-email is required")
	}

	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config.Load -> %w", err)
	}
	if ttl == 0 {
		ttl = conf.API.JWTTTL
	}

	token, err := jwthelper.GenerateToken([]byte(conf.API.JWTSigningKey), email, "", ttl)
	if err != nil {
		return fmt.Errorf("jwthelper.GenerateToken -> %w", err)
	}

	fmt.Println(token)
	return nil
}
