// Package config loads interception rules from YAML fixture files.
//
// A fixture lists rules with the same vocabulary as the intercept API:
//
//	log:
//	  level: debug
//	include:
//	  - "fixtures/**/*.yaml"
//	rules:
//	  - host: api.example.org
//	    method: post
//	    path: /users
//	    expect:
//	      headers: {Content-Type: application/json}
//	      jsonPath: {"$.name": ada}
//	    response:
//	      status: 201
//	      json: {id: 1, name: ada}
//
// ${VAR} and ${VAR:-default} are replaced from the environment before
// parsing. Include patterns are resolved relative to the including file.
//
//	f, err := config.Load("testdata/users.yaml")
//	if err != nil {
//	    t.Fatal(err)
//	}
//	reg := intercept.New(intercept.Options{Logger: f.Logger()})
//	rules, err := f.Apply(reg)
package config
