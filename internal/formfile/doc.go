// Package formfile reads and writes form files.
//
// A form file lists integrals, each with an integral type, a domain, a
// subdomain, optional metadata and an integrand written as an s-expression:
//
//	u             terminal
//	u#3           terminal carrying label 3
//	[0 2]         multi-index
//	(grad u)      operator application
//	(coordinate_derivative E w v _)
//	              marker around E with three parameters; '_' is an absent one
//
// Files ending in .toml are decoded with BurntSushi/toml, files ending in
// .yaml or .yml with gopkg.in/yaml.v3. Both share one document shape:
//
//	[[integral]]
//	type = "cell"
//	domain = "mesh"
//	integrand = "(coordinate_derivative (* u v) w _ _)"
//	[integral.metadata]
//	quadrature_degree = 2
package formfile
