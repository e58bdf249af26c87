package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alejandrodnm/riskfolio/internal/application/advisor"
	"github.com/alejandrodnm/riskfolio/internal/domain"
	"github.com/alejandrodnm/riskfolio/internal/ports"
)

// errQuit termina la sesión sin error.
var errQuit = errors.New("quit")

// session es el estado de navegación de la CLI. El core no guarda nada:
// la página y las respuestas viven aquí.
type session struct {
	adv      *advisor.Advisor
	notifier ports.Notifier
	in       *bufio.Scanner
	out      io.Writer

	page    domain.Page
	answers domain.Answers
	rec     domain.Recommendation
}

// runInteractive conduce cuestionario → cartera → backtest sobre in/out.
// EOF o "quit" terminan la sesión.
func runInteractive(ctx context.Context, adv *advisor.Advisor, n ports.Notifier, in io.Reader, out io.Writer) error {
	s := &session{
		adv:      adv,
		notifier: n,
		in:       bufio.NewScanner(in),
		out:      out,
		page:     domain.PageSurvey,
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		var err error
		switch s.page {
		case domain.PageSurvey:
			err = s.survey(ctx)
		case domain.PagePortfolio:
			err = s.portfolio(ctx)
		case domain.PageBacktest:
			err = s.backtest(ctx)
		}
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out, "bye")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// survey pregunta lo que falte y envía. Con la encuesta incompleta se queda aquí.
func (s *session) survey(ctx context.Context) error {
	fmt.Fprintln(s.out, "\n=== RISK PROFILE SURVEY === (empty answer skips, 'quit' exits)")

	name, err := s.ask("Your name (optional)")
	if err != nil {
		return err
	}
	gender, err := s.ask("Your gender (optional)")
	if err != nil {
		return err
	}
	if name != "" {
		s.answers.Name = name
	}
	if gender != "" {
		s.answers.Gender = gender
	}

	for _, q := range domain.Questions() {
		value, err := s.choose(q.Prompt, q.Options)
		if err != nil {
			return err
		}
		if value == "" {
			continue
		}
		switch q.ID {
		case domain.QuestionGoal:
			s.answers.Goal = value
		case domain.QuestionExperience:
			s.answers.Experience = value
		case domain.QuestionMarketReaction:
			s.answers.MarketReaction = value
		case domain.QuestionRiskTolerance:
			s.answers.RiskTolerance = value
		}
	}

	h, err := s.chooseHorizon()
	if err != nil {
		return err
	}
	if h != domain.HorizonUnknown {
		s.answers.Horizon = h
	}

	return s.move(ctx, domain.EventSubmit)
}

func (s *session) portfolio(ctx context.Context) error {
	rec, err := s.adv.Recommend(ctx, s.answers)
	if err != nil {
		return err
	}
	s.rec = rec
	if err := s.notifier.NotifyRecommendation(ctx, rec); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	return s.command(ctx, "[b]acktest, [<] back, [r]estart, [q]uit")
}

func (s *session) backtest(ctx context.Context) error {
	report, err := s.adv.Backtest(ctx, s.rec.Profile, s.answers.Horizon)
	if err != nil {
		return err
	}
	if err := s.notifier.NotifyBacktest(ctx, report); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	return s.command(ctx, "[<] back, [r]estart, [q]uit")
}

// command lee órdenes hasta que una produce una transición válida.
func (s *session) command(ctx context.Context, help string) error {
	for {
		line, err := s.ask(help)
		if err != nil {
			return err
		}
		var event domain.NavEvent
		switch strings.ToLower(line) {
		case "b", "backtest", "view_backtest":
			event = domain.EventViewBacktest
		case "<", "back":
			event = domain.EventBack
		case "r", "restart":
			event = domain.EventRestart
		default:
			fmt.Fprintf(s.out, "  unknown command %q\n", line)
			continue
		}
		if err := s.move(ctx, event); err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				fmt.Fprintf(s.out, "  %s is not available here\n", event)
				continue
			}
			return err
		}
		return nil
	}
}

// move aplica la transición. Un submit incompleto no es fatal: se informa y se
// vuelve a preguntar. Una respuesta vacía conserva la anterior.
func (s *session) move(_ context.Context, event domain.NavEvent) error {
	next, err := domain.Navigate(s.page, event, s.answers.Complete())
	if errors.Is(err, domain.ErrSurveyIncomplete) {
		fmt.Fprintf(s.out, "\n  Survey incomplete. Missing: %s\n", strings.Join(s.answers.Missing(), ", "))
		return nil
	}
	if err != nil {
		return err
	}
	if event == domain.EventRestart {
		s.answers = domain.Answers{}
		s.rec = domain.Recommendation{}
	}
	slog.Debug("navigation", "from", s.page, "event", event, "to", next)
	s.page = next
	return nil
}

// ask imprime prompt y lee una línea. "quit"/"q" devuelve errQuit.
func (s *session) ask(prompt string) (string, error) {
	fmt.Fprintf(s.out, "%s: ", prompt)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	line := strings.TrimSpace(s.in.Text())
	switch strings.ToLower(line) {
	case "q", "quit", "exit":
		return "", errQuit
	}
	return line, nil
}

// choose acepta el número de la opción o su texto. Vacío deja la respuesta sin dar.
func (s *session) choose(prompt string, opts []domain.Option) (string, error) {
	for {
		fmt.Fprintf(s.out, "\n%s\n", prompt)
		for i, o := range opts {
			fmt.Fprintf(s.out, "  %d) %s\n", i+1, o.Value)
		}
		line, err := s.ask("choice")
		if err != nil {
			return "", err
		}
		if line == "" {
			return "", nil
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(opts) {
			return opts[n-1].Value, nil
		}
		for _, o := range opts {
			if strings.EqualFold(o.Value, line) {
				return o.Value, nil
			}
		}
		fmt.Fprintf(s.out, "  invalid choice %q\n", line)
	}
}

func (s *session) chooseHorizon() (domain.Horizon, error) {
	horizons := domain.Horizons()
	for {
		fmt.Fprintf(s.out, "\nWhat is your investment horizon?\n")
		for i, h := range horizons {
			fmt.Fprintf(s.out, "  %d) %s\n", i+1, h.Label())
		}
		line, err := s.ask("choice")
		if err != nil {
			return domain.HorizonUnknown, err
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(horizons) {
			return horizons[n-1], nil
		}
		h, err := domain.ParseHorizon(line)
		if err == nil {
			return h, nil
		}
		fmt.Fprintf(s.out, "  invalid choice %q\n", line)
	}
}
