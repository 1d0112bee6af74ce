package provider

import "fmt"

// BuyerInfo is the payer's identity and address as some gateways require it.
type BuyerInfo struct {
	Email          string `json:"email"`
	Name           string `json:"name,omitempty"`
	Surname        string `json:"surname,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	Country        string `json:"country,omitempty"`
	ZipCode        string `json:"zip_code,omitempty"`
	IdentityNumber string `json:"identity_number,omitempty"`
}

// FullName joins name and surname, skipping empty parts.
func (b BuyerInfo) FullName() string {
	switch {
	case b.Name == "":
		return b.Surname
	case b.Surname == "":
		return b.Name
	default:
		return b.Name + " " + b.Surname
	}
}

// ResolveBuyerInfo accepts the buyer forms adapters take: BuyerInfo,
// *BuyerInfo, or a string-keyed map carrying at least "email". The second
// return value is false when v is nil or unusable.
func ResolveBuyerInfo(v interface{}) (*BuyerInfo, bool) {
	switch b := v.(type) {
	case nil:
		return nil, false
	case BuyerInfo:
		return &b, b.Email != ""
	case *BuyerInfo:
		if b == nil {
			return nil, false
		}
		return b, b.Email != ""
	case map[string]string:
		return buyerFromLookup(func(k string) string { return b[k] })
	case map[string]interface{}:
		return buyerFromLookup(func(k string) string {
			if val, ok := b[k]; ok && val != nil {
				return fmt.Sprint(val)
			}
			return ""
		})
	default:
		return nil, false
	}
}

func buyerFromLookup(get func(string) string) (*BuyerInfo, bool) {
	email := get("email")
	if email == "" {
		return nil, false
	}
	return &BuyerInfo{
		Email:          email,
		Name:           get("name"),
		Surname:        get("surname"),
		Phone:          get("phone"),
		Address:        get("address"),
		City:           get("city"),
		Country:        get("country"),
		ZipCode:        get("zip_code"),
		IdentityNumber: get("identity_number"),
	}, true
}
