package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"bookstore_back_end/internal/config"
	"bookstore_back_end/internal/models"
)

//go:embed templates/*.html
var templateFiles embed.FS

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) + " €" },
}

// Un template par email, chacun associé au layout commun.
var templates = map[string]*template.Template{
	"order_confirmation": parse("order_confirmation"),
	"order_collected":    parse("order_collected"),
	"order_cancelled":    parse("order_cancelled"),
	"welcome":            parse("welcome"),
}

func parse(name string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).
		ParseFS(templateFiles, "templates/layout.html", "templates/"+name+".html"))
}

type emailData struct {
	Title   string
	Company string
	User    models.User
	Order   models.Order
}

// Mailer envoie les emails transactionnels via SMTP.
type Mailer struct {
	cfg     config.SMTPConfig
	company string
	log     *zap.Logger
}

func New(cfg config.SMTPConfig, company string, log *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, company: company, log: log}
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, user models.User, order models.Order, invoice []byte) error {
	msg, err := m.BuildOrderConfirmation(user, order, invoice)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

func (m *Mailer) SendOrderCollected(ctx context.Context, user models.User, order models.Order) error {
	msg, err := m.build("order_collected", "📦 Commande retirée", user, order)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

func (m *Mailer) SendOrderCancelled(ctx context.Context, user models.User, order models.Order) error {
	msg, err := m.build("order_cancelled", "❌ Commande annulée", user, order)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

func (m *Mailer) SendWelcome(ctx context.Context, user models.User) error {
	msg, err := m.build("welcome", "🎉 Bienvenue sur "+m.company, user, models.Order{})
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

// BuildOrderConfirmation prépare l'email de confirmation, la facture est jointe si présente.
func (m *Mailer) BuildOrderConfirmation(user models.User, order models.Order, invoice []byte) (*mail.Msg, error) {
	msg, err := m.build("order_confirmation", "✅ Commande confirmée", user, order)
	if err != nil {
		return nil, err
	}
	if len(invoice) > 0 {
		name := fmt.Sprintf("facture-%s.pdf", order.ClaimCode)
		if err := msg.AttachReader(name, bytes.NewReader(invoice),
			mail.WithFileContentType(mail.ContentType("application/pdf"))); err != nil {
			return nil, errors.Wrap(err, "pièce jointe facture")
		}
	}
	return msg, nil
}

func (m *Mailer) build(tmpl, subject string, user models.User, order models.Order) (*mail.Msg, error) {
	var body bytes.Buffer
	data := emailData{Title: subject, Company: m.company, User: user, Order: order}
	if err := templates[tmpl].ExecuteTemplate(&body, "layout", data); err != nil {
		return nil, errors.Wrapf(err, "rendu template %s", tmpl)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, errors.Wrap(err, "adresse expéditeur")
	}
	if err := msg.To(user.Email); err != nil {
		return nil, errors.Wrap(err, "adresse destinataire")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body.String())
	return msg, nil
}

func (m *Mailer) send(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{mail.WithPort(m.cfg.Port)}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	if m.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return errors.Wrap(err, "client smtp")
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrap(err, "envoi smtp")
	}
	m.log.Info("📤 Email envoyé", zap.Strings("to", msg.GetToString()))
	return nil
}
