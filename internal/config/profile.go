package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Profile holds the static content and layout rules printed on every statement.
type Profile struct {
	Company       Company       `yaml:"company"`
	BankAccounts  []BankAccount `yaml:"bank_accounts"`
	PaymentNote   string        `yaml:"payment_note"`
	NumberingNote string        `yaml:"numbering_note"`
	LogoPath      string        `yaml:"logo_path"`
	Email         EmailProfile  `yaml:"email"`

	// RowHeight is the detail row height when no density band matches.
	RowHeight float64       `yaml:"row_height"`
	Density   []DensityBand `yaml:"density"`
	FontSteps []FontStep    `yaml:"font_steps"`
}

// Company identifies the issuer in the statement header and footer.
type Company struct {
	Name        string `yaml:"name"`
	TaxID       string `yaml:"tax_id"`
	Phone       string `yaml:"phone"`
	Address     string `yaml:"address"`
	FooterEmail string `yaml:"footer_email"`
}

// BankAccount is one entry of the payment-accounts block.
type BankAccount struct {
	Bank      string `yaml:"bank"`
	LocalIBAN string `yaml:"local_iban"`
	USDIBAN   string `yaml:"usd_iban"`
}

// EmailProfile is the wording of the statement email.
type EmailProfile struct {
	Subject string `yaml:"subject"`
	ReplyTo string `yaml:"reply_to"`
	// Intro paragraphs follow the greeting line.
	Intro []string `yaml:"intro"`
}

// DensityBand sets the detail row height for statements whose row count is in [MinRows, MaxRows].
type DensityBand struct {
	MinRows int     `yaml:"min_rows"`
	MaxRows int     `yaml:"max_rows"`
	Height  float64 `yaml:"height"`
}

// FontStep selects the summary font size for totals at or above MinTotal.
type FontStep struct {
	MinTotal float64 `yaml:"min_total"`
	Size     float64 `yaml:"size"`
}

// DefaultProfile returns the compiled-in statement profile.
func DefaultProfile() Profile {
	return Profile{
		Company: Company{
			Name: "Estado de Cuenta",
		},
		NumberingNote: "Las numeraciones que inician con 10000XXXXX corresponden a Documentos Electrónicos.\n" +
			"Las numeraciones de 6 dígitos corresponden a la liquidación de costos e impuestos.",
		Email: EmailProfile{
			Subject: "Estados de Cuenta",
			Intro: []string{
				"Adjunto a este mensaje encontrará el estado de cuenta actualizado al día de hoy.",
				"Agradecemos verificar las facturas y los montos detallados. Si encuentra alguna inconsistencia por favor infórmenos lo antes posible.",
			},
		},
		RowHeight: 10,
		Density: []DensityBand{
			{MinRows: 10, MaxRows: 10, Height: 9},
		},
		FontSteps: defaultFontSteps(),
	}
}

func defaultFontSteps() []FontStep {
	return []FontStep{
		{MinTotal: 100_000_000, Size: 7},
		{MinTotal: 10_000_000, Size: 8},
		{MinTotal: 1_000_000, Size: 9},
		{MinTotal: 100_000, Size: 10},
		{MinTotal: 0, Size: 11},
	}
}

// LoadProfile reads a YAML profile on top of the defaults. An empty path returns the defaults.
func LoadProfile(path string) (Profile, error) {
	profile := DefaultProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("read statement profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("parse statement profile %s: %w", path, err)
	}

	if profile.RowHeight <= 0 {
		profile.RowHeight = 10
	}
	if len(profile.FontSteps) == 0 {
		profile.FontSteps = defaultFontSteps()
	}
	if err := profile.validate(); err != nil {
		return profile, fmt.Errorf("statement profile %s: %w", path, err)
	}

	sort.SliceStable(profile.FontSteps, func(i, j int) bool {
		return profile.FontSteps[i].MinTotal > profile.FontSteps[j].MinTotal
	})
	return profile, nil
}

func (p Profile) validate() error {
	for _, band := range p.Density {
		if band.MinRows > band.MaxRows {
			return fmt.Errorf("density band %d-%d is inverted", band.MinRows, band.MaxRows)
		}
		if band.Height <= 0 {
			return fmt.Errorf("density band %d-%d needs a positive height", band.MinRows, band.MaxRows)
		}
	}
	for _, step := range p.FontSteps {
		if step.Size <= 0 {
			return fmt.Errorf("font step at %.0f needs a positive size", step.MinTotal)
		}
	}
	return nil
}
