package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shaiso/Leadflow/internal/config"
	"github.com/shaiso/Leadflow/internal/domain"
	"github.com/shaiso/Leadflow/internal/llm"
	"github.com/shaiso/Leadflow/internal/retry"
	"github.com/shaiso/Leadflow/internal/telemetry"
)

// Источник текста письма.
const (
	SourceTemplate = "template"
	SourceLLM      = "llm"
)

// OutreachContent — генерация писем для ранжированных лидов.
//
// Без LLM-клиента каждое письмо собирается из детерминированного шаблона.
// С клиентом: prompt → вызов с retry/backoff → разбор JSON {subject, body}.
// Любой сбой вызова или разбора даёт письмо из шаблона; ошибка шага
// возникает только при неверных входных данных или отмене ctx.
//
// Inputs:
//   - ranked_leads: []object
//   - persona: string (по умолчанию "SDR")
//   - tone: string (по умолчанию "friendly")
//
// Outputs:
//   - messages: []{lead_company, email_subject, email_body, source}
type OutreachContent struct {
	client  llm.Client
	cfg     config.OutreachConfig
	rnd     *rand.Rand
	sleep   retry.SleepFunc
	metrics *telemetry.Metrics
}

// NewOutreachContent создаёт агента.
func NewOutreachContent(opts Options) *OutreachContent {
	cfg := opts.Outreach
	if cfg.MaxAttempts <= 0 {
		cfg = config.DefaultOutreach()
	}

	return &OutreachContent{
		client:  opts.LLM,
		cfg:     cfg,
		rnd:     opts.newRand(),
		sleep:   opts.sleepFunc(),
		metrics: opts.Metrics,
	}
}

// Kind возвращает вид агента.
func (a *OutreachContent) Kind() domain.AgentKind {
	return domain.AgentOutreachContent
}

// Run генерирует письма.
func (a *OutreachContent) Run(ctx context.Context, req *Request) (*Response, error) {
	leads, err := GetInputRecords(req.Inputs, "ranked_leads")
	if err != nil {
		return nil, err
	}

	persona := GetInputString(req.Inputs, "persona", "SDR")
	tone := GetInputString(req.Inputs, "tone", "friendly")
	logger := req.logger()

	messages := make([]any, 0, len(leads))
	for i, lead := range leads {
		// Пауза между лидами ограничивает частоту исходящих вызовов
		if i > 0 && a.client != nil {
			if err := a.sleep(ctx, a.cfg.BatchSleep); err != nil {
				return nil, fmt.Errorf("outreach throttle: %w", err)
			}
		}

		msg, err := a.compose(ctx, lead, persona, tone, logger)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return NewResponse(map[string]any{"messages": messages}), nil
}

// compose возвращает письмо для одного лида.
func (a *OutreachContent) compose(ctx context.Context, lead map[string]any, persona, tone string, logger *slog.Logger) (map[string]any, error) {
	company := recordString(lead, "company")
	subject, body := TemplateMessage(lead, persona)

	if a.client == nil {
		a.metrics.ObserveFallback("no_client")
		return message(company, subject, body, SourceTemplate), nil
	}

	raw, err := a.generate(ctx, BuildPrompt(lead, persona, tone), logger)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Error("generation failed, using template", "company", company, "error", err)
		a.metrics.ObserveFallback("llm_error")
		return message(company, subject, body, SourceTemplate), nil
	}

	parsed, ok := llm.ExtractJSON(raw)
	if !ok {
		logger.Warn("generation returned no JSON, using template", "company", company)
		a.metrics.ObserveFallback("unparsable")
		return message(company, subject, body, SourceTemplate), nil
	}

	genSubject, hasSubject := nonEmptyString(parsed, "subject")
	genBody, hasBody := nonEmptyString(parsed, "body")

	switch {
	case !hasSubject && !hasBody:
		a.metrics.ObserveFallback("missing_keys")
		return message(company, subject, body, SourceTemplate), nil
	case !hasSubject:
		genSubject = subject
	case !hasBody:
		genBody = body
	}

	return message(company, genSubject, genBody, SourceLLM), nil
}

// generate вызывает LLM с retry. Ошибки лимита/квоты не повторяются.
func (a *OutreachContent) generate(ctx context.Context, prompt string, logger *slog.Logger) (string, error) {
	policy := retry.Policy{
		MaxAttempts:    a.cfg.MaxAttempts,
		BaseBackoff:    a.cfg.BaseBackoff,
		JitterFraction: retry.DefaultJitterFraction,
	}

	var text string
	err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) error {
		out, err := a.client.Complete(ctx, llm.CompletionRequest{
			System: llm.DefaultSystemPrompt,
			Prompt: prompt,
		})
		switch {
		case err == nil:
			a.metrics.ObserveLLMAttempt("ok")
			text = out
		case llm.IsRateLimited(err):
			a.metrics.ObserveLLMAttempt("rate_limited")
		default:
			a.metrics.ObserveLLMAttempt("error")
		}
		return err
	}, retry.Options{
		IsFatal: llm.IsRateLimited,
		Sleep:   a.sleep,
		Rand:    a.rnd,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			logger.Warn("llm call failed, backing off",
				"attempt", attempt,
				"wait", wait,
				"error", err,
			)
		},
	})

	if errors.Is(err, retry.ErrFatal) {
		logger.Error("fatal llm rate/quota error", "error", err)
	}
	return text, err
}

// TemplateMessage собирает детерминированное письмо.
func TemplateMessage(lead map[string]any, persona string) (subject, body string) {
	company := recordString(lead, "company")

	subject = "Quick question about " + company
	body = fmt.Sprintf("Hi %s,\n\nI noticed %s is %s and using %s. "+
		"Would you be open to a quick 15-min chat?\n\nBest,\n%s",
		recordString(lead, "contact_name"),
		company,
		recordString(lead, "signal"),
		strings.Join(recordList(lead, "tech_stack"), ", "),
		persona,
	)
	return subject, body
}

// BuildPrompt формирует запрос к модели для одного лида.
func BuildPrompt(lead map[string]any, persona, tone string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an outbound SDR writing a short cold email (subject + one short paragraph body) "+
		"for the %s persona. Tone: %s.\n\n", persona, tone)
	fmt.Fprintf(&b, "Lead company: %s\n", recordString(lead, "company"))
	fmt.Fprintf(&b, "Contact name: %s\n", recordString(lead, "contact_name"))
	fmt.Fprintf(&b, "Relevant signals: %s\n", recordString(lead, "signal"))
	fmt.Fprintf(&b, "Tech stack: %s\n\n", strings.Join(recordList(lead, "tech_stack"), ", "))
	b.WriteString("Requirements:\n")
	b.WriteString("- Subject: 3-6 words emphasizing outcome.\n")
	b.WriteString("- Body: <= 80 words, short social proof clause, single CTA.\n")
	b.WriteString("- Output JSON ONLY with keys: subject, body.\n\n")
	b.WriteString("Now produce the JSON only.")

	return b.String()
}

func message(company, subject, body, source string) map[string]any {
	return map[string]any{
		"lead_company":  company,
		"email_subject": strings.TrimSpace(subject),
		"email_body":    strings.TrimSpace(body),
		"source":        source,
	}
}

func nonEmptyString(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
