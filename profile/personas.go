// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package profile

// Built in personas. The same principals appear in both variants so a relying
// party can exercise individual and organization logins for one person.
var (
	singPassPersonas = []Profile{
		{NRIC: "S8979373D", UUID: "88a8be76-f47d-43f7-b0f3-c527ddd3f799"},
		{NRIC: "S8116474F", UUID: "79135cc2-67b9-4a17-b944-caf36e57c905"},
		{NRIC: "S8723211E", UUID: "24777b29-5191-4811-97b8-755ac498ea1c"},
		{NRIC: "S5062854Z", UUID: "f39453f4-d63f-4b65-9e2b-e012786b96b5"},
		{NRIC: "T0066846F", UUID: "ec041cfb-42da-4349-a06a-72e0253860c3"},
		{NRIC: "F9477325W", UUID: "d60c93e8-a775-4c2b-916c-c0e8fa5d34bd"},
		{NRIC: "S3000024B", UUID: "fe0c477e-4004-4b0a-bbd2-1dffd4260130"},
		{NRIC: "S6005040F", UUID: "6356af8e-22dc-44e4-94f8-c7349cdc1756"},
		{NRIC: "S9812381D", UUID: "e1516d3b-dfa3-4475-bed5-6d4ba28b63cc"},
		{NRIC: "S9812379B", UUID: "03b48ee9-c7e8-4ad1-be17-df31ee380353"},
	}

	// myInfoPersonas have extended profile data available.
	myInfoPersonas = []string{"S9812381D", "S9812379B"}

	corpPassPersonas = []Profile{
		{NRIC: "S8979373D", UUID: "b3b7c36a-ee19-4071-833e-31393bf096ca", Name: "Name of S8979373D", IsSingPassHolder: true, UEN: "123456789A"},
		{NRIC: "S8116474F", UUID: "d89bed6a-d031-41d9-b272-6ba522a24d91", Name: "Name of S8116474F", IsSingPassHolder: true, UEN: "123456789A"},
		{NRIC: "S8723211E", UUID: "3e9d8a73-dcec-49a6-954f-b5571aac3f53", Name: "Name of S8723211E", IsSingPassHolder: true, UEN: "123456789A"},
		{NRIC: "S5062854Z", UUID: "93ee57bc-03d1-4044-a388-9e18731b46c5", Name: "Name of S5062854Z", IsSingPassHolder: true, UEN: "123456789B"},
		{NRIC: "T0066846F", UUID: "844907b4-cfd8-43c6-881e-45b09f7e1519", Name: "Name of T0066846F", IsSingPassHolder: true, UEN: "123456789B"},
		{NRIC: "F9477325W", UUID: "deab10f2-669a-4a93-b1bf-49063f2a4868", Name: "Name of F9477325W", IsSingPassHolder: false, UEN: "123456789B"},
	}
)

// DefaultRegistry returns a registry of the built in personas for the variant.
func DefaultRegistry(v Variant, opt ...Option) (*Registry, error) {
	switch v {
	case SingPass:
		opt = append([]Option{WithExtendedProfiles(myInfoPersonas...)}, opt...)
		return NewRegistry(v, singPassPersonas, opt...)
	case CorpPass:
		return NewRegistry(v, corpPassPersonas, opt...)
	default:
		return NewRegistry(v, nil, opt...)
	}
}
