// Command issue-token mints a signed access token for local development,
// standing in for the identity service that issues them in production.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/stemsi/codexam-backend/internal/config"
	"github.com/stemsi/codexam-backend/internal/logger"
	"github.com/stemsi/codexam-backend/internal/model"
	"github.com/stemsi/codexam-backend/internal/service"
)

func main() {
	var (
		kind  string
		id    int
		perms string
	)
	flag.StringVar(&kind, "type", "student", "Token type: student or admin")
	flag.IntVar(&id, "id", 0, "Student or admin ID")
	flag.StringVar(&perms, "perms", model.PermissionAnswersRead, "Comma-separated admin permissions")
	flag.Parse()

	cfg := config.Load()
	log := logger.Component(logger.Setup(cfg.LogLevel, cfg.LogFormat), "issue_token")

	tokenType := service.TokenType(kind)
	if tokenType != service.TokenTypeStudent && tokenType != service.TokenTypeAdmin {
		log.Fatal().Str("type", kind).Msg("Unknown token type")
	}
	if id <= 0 {
		log.Fatal().Msg("-id is required")
	}

	var permissions []string
	if tokenType == service.TokenTypeAdmin && perms != "" {
		permissions = strings.Split(perms, ",")
	}

	token, err := service.NewAuthService(cfg).IssueToken(tokenType, id, permissions)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to issue token")
	}

	fmt.Fprintln(os.Stdout, token)
}
