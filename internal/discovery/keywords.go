package discovery

import (
	"strings"
	"unicode"

	"mcpatlas-go/internal/vault"
)

// conceptKeywords binds query tokens to concept areas. The maps are the
// engine's whole notion of "understanding" a query, so they stay generous:
// a token may fan out to several areas.
var conceptKeywords = map[string][]vault.ConceptArea{
	"concurrency":   {vault.ConceptConcurrency},
	"concurrent":    {vault.ConceptConcurrency},
	"threads":       {vault.ConceptConcurrency},
	"thread":        {vault.ConceptConcurrency},
	"async":         {vault.ConceptConcurrency},
	"goroutines":    {vault.ConceptConcurrency},
	"channels":      {vault.ConceptConcurrency},
	"parallel":      {vault.ConceptConcurrency, vault.ConceptPerformance},
	"pattern":       {vault.ConceptDesignPatterns},
	"patterns":      {vault.ConceptDesignPatterns},
	"solid":         {vault.ConceptDesignPatterns},
	"clean":         {vault.ConceptDesignPatterns},
	"refactoring":   {vault.ConceptDesignPatterns},
	"testing":       {vault.ConceptTesting},
	"test":          {vault.ConceptTesting},
	"tests":         {vault.ConceptTesting},
	"junit":         {vault.ConceptTesting},
	"pytest":        {vault.ConceptTesting},
	"tdd":           {vault.ConceptTesting},
	"mocking":       {vault.ConceptTesting},
	"k8s":           {vault.ConceptContainers},
	"kubernetes":    {vault.ConceptContainers},
	"docker":        {vault.ConceptContainers},
	"helm":          {vault.ConceptContainers},
	"containers":    {vault.ConceptContainers},
	"container":     {vault.ConceptContainers},
	"algorithm":     {vault.ConceptAlgorithms},
	"algorithms":    {vault.ConceptAlgorithms},
	"sorting":       {vault.ConceptAlgorithms},
	"graph":         {vault.ConceptAlgorithms, vault.ConceptDataStructures},
	"graphs":        {vault.ConceptAlgorithms, vault.ConceptDataStructures},
	"structures":    {vault.ConceptDataStructures},
	"trees":         {vault.ConceptDataStructures},
	"hashmap":       {vault.ConceptDataStructures},
	"web":           {vault.ConceptWebDevelopment},
	"html":          {vault.ConceptWebDevelopment},
	"css":           {vault.ConceptWebDevelopment},
	"frontend":      {vault.ConceptWebDevelopment},
	"backend":       {vault.ConceptWebDevelopment},
	"rest":          {vault.ConceptWebDevelopment, vault.ConceptNetworking},
	"api":           {vault.ConceptWebDevelopment},
	"database":      {vault.ConceptDatabases},
	"databases":     {vault.ConceptDatabases},
	"sql":           {vault.ConceptDatabases},
	"postgres":      {vault.ConceptDatabases},
	"transactions":  {vault.ConceptDatabases},
	"http":          {vault.ConceptNetworking},
	"tcp":           {vault.ConceptNetworking},
	"networking":    {vault.ConceptNetworking},
	"network":       {vault.ConceptNetworking},
	"dns":           {vault.ConceptNetworking},
	"security":      {vault.ConceptSecurity},
	"owasp":         {vault.ConceptSecurity},
	"crypto":        {vault.ConceptSecurity},
	"auth":          {vault.ConceptSecurity},
	"vulnerability": {vault.ConceptSecurity},
	"functional":    {vault.ConceptFunctional},
	"lambda":        {vault.ConceptFunctional},
	"lambdas":       {vault.ConceptFunctional},
	"immutable":     {vault.ConceptFunctional},
	"oop":           {vault.ConceptObjectOriented},
	"inheritance":   {vault.ConceptObjectOriented},
	"classes":       {vault.ConceptObjectOriented},
	"objects":       {vault.ConceptObjectOriented},
	"distributed":   {vault.ConceptDistributedSystems},
	"microservices": {vault.ConceptDistributedSystems},
	"consensus":     {vault.ConceptDistributedSystems},
	"replication":   {vault.ConceptDistributedSystems, vault.ConceptDatabases},
	"pipelines":     {vault.ConceptCICD},
	"pipeline":      {vault.ConceptCICD},
	"deploy":        {vault.ConceptCICD},
	"deployment":    {vault.ConceptCICD},
	"jenkins":       {vault.ConceptCICD},
	"performance":   {vault.ConceptPerformance},
	"profiling":     {vault.ConceptPerformance},
	"optimization":  {vault.ConceptPerformance},
	"latency":       {vault.ConceptPerformance},
	"basics":        {vault.ConceptFundamentals},
	"fundamentals":  {vault.ConceptFundamentals},
	"programming":   {vault.ConceptFundamentals},
	"syntax":        {vault.ConceptFundamentals},
	"introduction":  {vault.ConceptFundamentals},
}

// categoryKeywords binds query tokens to categories.
var categoryKeywords = map[string][]vault.Category{
	"java":       {vault.CategoryJava},
	"jdk":        {vault.CategoryJava},
	"jvm":        {vault.CategoryJava},
	"spring":     {vault.CategoryJava},
	"maven":      {vault.CategoryJava},
	"junit":      {vault.CategoryJava},
	"python":     {vault.CategoryPython},
	"pip":        {vault.CategoryPython},
	"django":     {vault.CategoryPython},
	"pytest":     {vault.CategoryPython},
	"golang":     {vault.CategoryGo},
	"goroutines": {vault.CategoryGo},
	"javascript": {vault.CategoryJavaScript},
	"node":       {vault.CategoryJavaScript},
	"typescript": {vault.CategoryJavaScript},
	"react":      {vault.CategoryJavaScript, vault.CategoryWeb},
	"web":        {vault.CategoryWeb},
	"html":       {vault.CategoryWeb},
	"css":        {vault.CategoryWeb},
	"devops":     {vault.CategoryDevOps},
	"docker":     {vault.CategoryDevOps},
	"kubernetes": {vault.CategoryDevOps, vault.CategoryCloud},
	"k8s":        {vault.CategoryDevOps, vault.CategoryCloud},
	"terraform":  {vault.CategoryDevOps, vault.CategoryCloud},
	"aws":        {vault.CategoryCloud},
	"azure":      {vault.CategoryCloud},
	"gcp":        {vault.CategoryCloud},
	"cloud":      {vault.CategoryCloud},
	"data":       {vault.CategoryData},
	"sql":        {vault.CategoryData},
	"spark":      {vault.CategoryData},
	"kafka":      {vault.CategoryData},
	"security":   {vault.CategorySecurity},
	"owasp":      {vault.CategorySecurity},
	"pentest":    {vault.CategorySecurity},
}

// adjacentConcepts lists the broader or neighboring areas offered as
// follow-up suggestions on exploratory queries.
var adjacentConcepts = map[vault.ConceptArea][]vault.ConceptArea{
	vault.ConceptConcurrency:        {vault.ConceptDistributedSystems, vault.ConceptPerformance},
	vault.ConceptDesignPatterns:     {vault.ConceptObjectOriented, vault.ConceptFundamentals},
	vault.ConceptTesting:            {vault.ConceptCICD, vault.ConceptFundamentals},
	vault.ConceptContainers:         {vault.ConceptCICD, vault.ConceptDistributedSystems},
	vault.ConceptAlgorithms:         {vault.ConceptDataStructures, vault.ConceptPerformance},
	vault.ConceptDataStructures:     {vault.ConceptAlgorithms, vault.ConceptFundamentals},
	vault.ConceptWebDevelopment:     {vault.ConceptNetworking, vault.ConceptSecurity},
	vault.ConceptDatabases:          {vault.ConceptDistributedSystems, vault.ConceptPerformance},
	vault.ConceptNetworking:         {vault.ConceptDistributedSystems, vault.ConceptSecurity},
	vault.ConceptSecurity:           {vault.ConceptWebDevelopment, vault.ConceptNetworking},
	vault.ConceptFunctional:         {vault.ConceptFundamentals, vault.ConceptDesignPatterns},
	vault.ConceptObjectOriented:     {vault.ConceptDesignPatterns, vault.ConceptFundamentals},
	vault.ConceptDistributedSystems: {vault.ConceptDatabases, vault.ConceptNetworking},
	vault.ConceptCICD:               {vault.ConceptContainers, vault.ConceptTesting},
	vault.ConceptPerformance:        {vault.ConceptAlgorithms, vault.ConceptConcurrency},
	vault.ConceptFundamentals:       {vault.ConceptAlgorithms, vault.ConceptTesting, vault.ConceptObjectOriented},
}

// tokenize lowercases, splits on anything that is not a letter or digit,
// and drops tokens of two characters or fewer.
func tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if len(f) <= 2 || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// inferKeywords resolves tokens to concept and category sets.
func inferKeywords(tokens []string) (map[vault.ConceptArea]bool, map[vault.Category]bool) {
	concepts := make(map[vault.ConceptArea]bool)
	categories := make(map[vault.Category]bool)
	for _, tok := range tokens {
		for _, c := range conceptKeywords[tok] {
			concepts[c] = true
		}
		for _, c := range categoryKeywords[tok] {
			categories[c] = true
		}
	}
	return concepts, categories
}
