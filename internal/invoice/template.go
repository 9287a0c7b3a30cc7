package invoice

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"bookstore_back_end/internal/models"
)

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) + " €" },
	"date":  func(t time.Time) string { return t.Format("02/01/2006 15:04") },
}).Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>Facture {{.Order.ID}}</title>
<style>
  body { font-family: Helvetica, Arial, sans-serif; color: #222; margin: 40px; }
  h1 { font-size: 22px; margin-bottom: 4px; }
  .meta { color: #666; font-size: 12px; }
  table { width: 100%; border-collapse: collapse; margin-top: 24px; }
  th, td { border-bottom: 1px solid #ddd; padding: 8px; text-align: left; font-size: 13px; }
  td.num, th.num { text-align: right; }
  .total { font-weight: bold; font-size: 15px; }
  .claim { margin-top: 32px; display: flex; align-items: center; gap: 24px; }
  .claim code { font-size: 20px; letter-spacing: 2px; }
</style>
</head>
<body>
  <h1>{{.Company}}</h1>
  <div class="meta">Commande {{.Order.ID}} du {{date .Order.OrderDate}}</div>
  <div class="meta">Client : {{.User.Name}} &lt;{{.User.Email}}&gt;</div>

  <table>
    <thead>
      <tr><th>Livre</th><th class="num">Qté</th><th class="num">Prix unitaire</th><th class="num">Sous-total</th></tr>
    </thead>
    <tbody>
    {{range .Order.Lines}}
      <tr><td>{{.Title}}</td><td class="num">{{.Quantity}}</td><td class="num">{{money .UnitPrice}}</td><td class="num">{{money .Subtotal}}</td></tr>
    {{end}}
      <tr class="total"><td colspan="3">Total</td><td class="num">{{money .Order.TotalAmount}}</td></tr>
    </tbody>
  </table>

  <div class="claim">
    <img src="{{.QRCode}}" width="160" height="160" alt="code de retrait">
    <div>
      <div>Code de retrait à présenter en magasin :</div>
      <code>{{.Order.ClaimCode}}</code>
    </div>
  </div>
</body>
</html>`))

type templateData struct {
	Company string
	Order   models.Order
	User    models.User
	QRCode  template.URL
}

// ClaimCodeQR encode le code de retrait en PNG base64 utilisable dans <img src>.
func ClaimCodeQR(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return "", errors.Wrap(err, "génération QR code")
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// BuildHTML produit le document HTML de la facture.
func BuildHTML(company string, order models.Order, user models.User) (string, error) {
	qr, err := ClaimCodeQR(order.ClaimCode)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, templateData{
		Company: company,
		Order:   order,
		User:    user,
		QRCode:  template.URL(qr),
	}); err != nil {
		return "", errors.Wrap(err, "rendu template facture")
	}
	return buf.String(), nil
}
