package banguat

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/banrisk/fxvar/internal/series"
)

const envelopeTemplate = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
               xmlns:xsd="http://www.w3.org/2001/XMLSchema"
               xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <TipoCambioRango xmlns="http://www.banguat.gob.gt/variables/ws/">
      <fechainit>%s</fechainit>
      <fechafin>%s</fechafin>
    </TipoCambioRango>
  </soap:Body>
</soap:Envelope>
`

// buildEnvelope renders the TipoCambioRango request body. The upstream
// wants dd/mm/yyyy dates.
func buildEnvelope(start, end time.Time) []byte {
	return []byte(fmt.Sprintf(envelopeTemplate,
		start.Format("02/01/2006"), end.Format("02/01/2006")))
}

type soapEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault    *soapFault `xml:"Fault"`
		Response struct {
			Result struct {
				Vars []varRow `xml:"Vars>Var"`
			} `xml:"TipoCambioRangoResult"`
		} `xml:"TipoCambioRangoResponse"`
	} `xml:"Body"`
}

type soapFault struct {
	FaultString string `xml:"faultstring"`
}

type varRow struct {
	Fecha string `xml:"fecha"`
	Venta string `xml:"venta"`
}

// parseResponse extracts (date, rate) rows from a TipoCambioRango
// response payload. A SOAP fault or a malformed row is an error, not a
// skipped record.
func parseResponse(payload []byte, start, end time.Time) ([]series.RatePoint, error) {
	var env soapEnvelope
	if err := xml.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("banguat: invalid XML for %s to %s: %w",
			start.Format("2006-01-02"), end.Format("2006-01-02"), err)
	}

	if env.Body.Fault != nil {
		msg := env.Body.Fault.FaultString
		if msg == "" {
			msg = "unknown SOAP fault"
		}
		return nil, fmt.Errorf("banguat: SOAP fault for %s to %s: %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"), msg)
	}

	rows := env.Body.Response.Result.Vars
	points := make([]series.RatePoint, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.Fecha) == "" || strings.TrimSpace(row.Venta) == "" {
			return nil, fmt.Errorf("banguat: row missing fecha/venta for %s to %s",
				start.Format("2006-01-02"), end.Format("2006-01-02"))
		}

		date, err := time.Parse("02/01/2006", strings.TrimSpace(row.Fecha))
		if err != nil {
			return nil, fmt.Errorf("banguat: non-parseable fecha %q: %w", row.Fecha, err)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row.Venta), 64)
		if err != nil {
			return nil, fmt.Errorf("banguat: non-numeric venta %q: %w", row.Venta, err)
		}

		points = append(points, series.RatePoint{Date: date, Rate: value})
	}
	return points, nil
}
