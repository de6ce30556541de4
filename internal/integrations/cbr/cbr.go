package cbr

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/dkrylov/finplan/internal/config"
	"github.com/sirupsen/logrus"
)

// bankMargin is added on top of the central bank key rate when
// suggesting a default loan rate.
const bankMargin = 5.0

// Client fetches the key rate from the Central Bank of Russia SOAP
// service. The service suggests it (plus margin) as the default annual
// rate for cash loan rules created without an explicit rate.
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new CBR client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.CBRURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// buildSOAPRequest creates a SOAP request for the key rate over the
// last 30 days.
func (c *Client) buildSOAPRequest() string {
	fromDate := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	toDate := time.Now().Format("2006-01-02")
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<KeyRate xmlns="http://web.cbr.ru/">
					<fromDate>%s</fromDate>
					<ToDate>%s</ToDate>
				</KeyRate>
			</soap12:Body>
		</soap12:Envelope>`, fromDate, toDate)
}

func (c *Client) sendRequest(soapRequest string) ([]byte, error) {
	req, err := http.NewRequest("POST", c.url, bytes.NewBuffer([]byte(soapRequest)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/KeyRate")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debugf("CBR XML response: %s", string(body))
	return body, nil
}

// parseKeyRate extracts the most recent key rate from the SOAP response.
func (c *Client) parseKeyRate(rawBody []byte) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return 0, fmt.Errorf("failed to parse XML: %w", err)
	}

	krElements := doc.FindElements("//diffgram/KeyRate/KR")
	if len(krElements) == 0 {
		return 0, fmt.Errorf("no key rate data found in XML")
	}

	rateElement := krElements[0].FindElement("./Rate")
	if rateElement == nil {
		return 0, fmt.Errorf("rate element not found in XML")
	}

	var rate float64
	if _, err := fmt.Sscanf(rateElement.Text(), "%f", &rate); err != nil {
		return 0, fmt.Errorf("failed to parse rate: %w", err)
	}
	return rate, nil
}

// GetKeyRate retrieves the current central bank key rate.
func (c *Client) GetKeyRate() (float64, error) {
	body, err := c.sendRequest(c.buildSOAPRequest())
	if err != nil {
		return 0, err
	}
	rate, err := c.parseKeyRate(body)
	if err != nil {
		return 0, err
	}
	c.log.Infof("Retrieved key rate: %.2f%%", rate)
	return rate, nil
}

// DefaultLoanRate is the suggested annual rate for a new loan: the key
// rate plus the bank margin.
func (c *Client) DefaultLoanRate() (float64, error) {
	rate, err := c.GetKeyRate()
	if err != nil {
		return 0, err
	}
	return rate + bankMargin, nil
}
