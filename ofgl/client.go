// Package ofgl queries the OFGL open data platform (data.ofgl.fr) for the
// consolidated finances of French communes and intercommunalities. It is the
// trusted numeric source of the resolution engine: figures it returns are
// copied into the profile as-is, bypassing the agent.
package ofgl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://data.ofgl.fr/api/explore/v2.1/catalog/datasets"

	communeDataset = "ofgl-base-communes-consolidee"
	epciDataset    = "ofgl-base-ei"

	communeSelect = "exer,com_name,siren,insee,agregat,montant,montant_bp,montant_ba," +
		"montant_flux,euros_par_habitant,ptot,rural,montagne,touristique,qpv,epci_name"
	epciSelect = "exer,epci_name,epci_code,siren,agregat,montant,montant_gfp,montant_communes," +
		"montant_flux,euros_par_habitant,ptot,nat_juridique,mode_financement,gfp_qpv,reg_name,dep_name"
)

// Metrics is a flat mapping of named numeric indicators for one subject.
type Metrics map[string]float64

// Dataset maps a subject display name to its metrics. It is built once per
// run and only ever read afterwards.
type Dataset map[string]Metrics

// Lookup returns a metric for a subject. The second return is false when the
// subject or the metric is absent, which callers treat as "no data".
func (d Dataset) Lookup(subject, metric string) (float64, bool) {
	m, ok := d[subject]
	if !ok {
		return 0, false
	}
	v, ok := m[metric]
	return v, ok
}

type record struct {
	Agregat          string  `json:"agregat"`
	Montant          float64 `json:"montant"`
	EurosParHabitant float64 `json:"euros_par_habitant"`
	Ptot             float64 `json:"ptot"`
}

type queryResponse struct {
	Results []record `json:"results"`
}

// Client calls the OFGL records API. All lookups degrade to an empty Metrics
// when the platform is unreachable or has no rows for the identifier and
// year: empty means "no data", never an error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient returns a Client with the public OFGL endpoint as default.
func NewClient(opts ...Option) *Client {
	ret := new(Client)
	for _, opt := range opts {
		opt(ret)
	}
	if ret.baseURL == "" {
		ret.baseURL = defaultBaseURL
	}
	if ret.httpClient == nil {
		ret.httpClient = http.DefaultClient
	}
	if ret.logger == nil {
		ret.logger = zap.NewNop()
	}
	return ret
}

// CommuneFinances returns the financial metrics of a commune identified by
// its SIREN number for a reference year.
func (c *Client) CommuneFinances(ctx context.Context, siren string, year int) Metrics {
	where := fmt.Sprintf("siren='%s' AND year(exer)='%d'", siren, year)
	return c.query(ctx, communeDataset, where, communeSelect, year)
}

// EPCIFinances returns the financial metrics of an intercommunality (EPCI)
// identified by its EPCI code for a reference year.
func (c *Client) EPCIFinances(ctx context.Context, epciCode string, year int) Metrics {
	where := fmt.Sprintf("epci_code='%s' AND year(exer)='%d'", epciCode, year)
	return c.query(ctx, epciDataset, where, epciSelect, year)
}

func (c *Client) query(ctx context.Context, dataset, where, selectFields string, year int) Metrics {
	endpoint := fmt.Sprintf("%s/%s/records", c.baseURL, dataset)
	params := url.Values{}
	params.Set("limit", "100")
	params.Set("where", where)
	params.Set("order_by", "agregat")
	params.Set("select", selectFields)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		c.logger.Warn("ofgl request build failed", zap.Error(err))
		return Metrics{}
	}
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("ofgl unreachable", zap.String("dataset", dataset), zap.Error(err))
		return Metrics{}
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		c.logger.Warn("ofgl returned non-200",
			zap.String("dataset", dataset),
			zap.Int("status", httpResp.StatusCode),
		)
		return Metrics{}
	}
	var res queryResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&res); err != nil {
		c.logger.Warn("ofgl response decode failed", zap.Error(err))
		return Metrics{}
	}
	if len(res.Results) == 0 {
		c.logger.Info("ofgl has no rows",
			zap.String("dataset", dataset),
			zap.String("where", where),
			zap.Int("year", year),
		)
		return Metrics{}
	}
	return extract(res.Results, year)
}

func extract(results []record, year int) Metrics {
	aggregates := make(map[string]float64, len(results))
	metrics := Metrics{
		"population":     results[0].Ptot,
		"data_from_year": float64(year),
	}
	for _, row := range results {
		aggregates[aggregateParams[row.Agregat]] = row.Montant
		if row.Agregat == debtAggregate {
			metrics["total_budget"] = row.Montant
			metrics["total_budget_per_person"] = row.EurosParHabitant
		}
	}
	for name, d := range derivedMetrics {
		v, ok := d.evaluate(aggregates)
		if !ok {
			continue
		}
		metrics[name] = v
	}
	return metrics
}
