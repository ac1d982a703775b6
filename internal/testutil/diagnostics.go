package testutil

// SampleFailure is a real feature install failure: a feature whose bundle is
// missing org.apache.commons.lang in [2.6.0, 3.0.0).
const SampleFailure = "Unable to resolve root: missing requirement [root] osgi.identity;" +
	" osgi.identity=test-io;" +
	" type=karaf.feature;" +
	" version=\"[2.19.11,2.19.11]\";" +
	" filter:=\"(&(osgi.identity=test-io)(type=karaf.feature)(version>=2.19.11)(version<=2.19.11))\"" +
	" [caused by: Unable to resolve test-io/2.19.11: missing requirement [test-io/2.19.11] osgi.identity;" +
	" osgi.identity=platform-io-impl;" +
	" type=osgi.bundle;" +
	" version=\"[2.19.11,2.19.11]\";" +
	" resolution:=mandatory" +
	" [caused by: Unable to resolve platform-io-impl/2.19.11: missing requirement [platform-io-impl/2.19.11] osgi.wiring.package;" +
	" filter:=\"(&(osgi.wiring.package=org.apache.commons.lang)(version>=2.6.0)(!(version>=3.0.0)))\"]]"

// SampleFilterClause is the package clause embedded in SampleFailure.
const SampleFilterClause = `filter:="(&(osgi.wiring.package=org.apache.commons.lang)(version>=2.6.0)(!(version>=3.0.0)))"`

// NonPackageFailure is a failure with no missing package clause.
const NonPackageFailure = "Unable to resolve root: missing requirement [root] osgi.identity;" +
	" osgi.identity=no-such-feature; type=karaf.feature; version=\"[1.0.0,1.0.0]\";" +
	" filter:=\"(&(osgi.identity=no-such-feature)(type=karaf.feature)(version>=1.0.0)(version<=1.0.0))\""
